package mf2

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
)

// MissingFieldError reports a required field absent from a create document.
// Content is the only property whose absence fails a decode outright; every
// other malformed property is logged and skipped.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q is missing", e.Field)
}

type jsonCreate struct {
	Type       []string       `json:"type"`
	Properties map[string]any `json:"properties"`
}

// builder accumulates entry fields while property rules run. Mirrors the
// shape of the wire-independent Entry, with presence tracked separately for
// content so an explicitly empty string still counts as provided.
type builder struct {
	entry       Entry
	haveContent bool
}

func (b *builder) setContent(s string) {
	b.entry.Content = s
	b.haveContent = true
}

func (b *builder) addCategory(c string) {
	b.entry.Categories = append(b.entry.Categories, c)
}

func (b *builder) build() (*Entry, error) {
	if !b.haveContent {
		return nil, &MissingFieldError{Field: "content"}
	}
	if b.entry.Kind == "" {
		b.entry.Kind = "entry"
	}
	if b.entry.Categories == nil {
		b.entry.Categories = []string{}
	}
	e := b.entry
	return &e, nil
}

// DecodeJSON decodes an mf2 JSON create document into a canonical Entry.
// Property shapes that do not match any rule are logged and skipped rather
// than failing the whole decode; unknown future mf2 extensions must not
// break posting.
func DecodeJSON(body []byte) (*Entry, error) {
	var doc jsonCreate
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid mf2 json: %w", err)
	}

	b := &builder{}

	if len(doc.Type) > 0 {
		// h-entry and h-food normalize to entry and food.
		b.entry.Kind = strings.TrimPrefix(doc.Type[0], "h-")
	}

	// First matching property name in each group wins.
	groups := [][]string{
		{"content", "content[html]"},
		{"name"},
		{"category"},
		{"published"},
		{"mp-slug"},
		{"bookmark-of"},
		{"photo"},
	}

	for _, group := range groups {
		for _, prop := range group {
			raw, ok := doc.Properties[prop]
			if !ok {
				continue
			}
			val, err := classifyValue(raw)
			if err != nil {
				// Leniency: a shape we cannot classify is skipped, and the
				// remaining names in the group still get a chance.
				log.Printf("mf2: skipping property %q: %v", prop, err)
				continue
			}
			applyProperty(b, group[0], val)
			break
		}
	}

	return b.build()
}

func applyProperty(b *builder, prop string, val PropertyValue) {
	switch prop {
	case "content":
		decodeContent(b, val)
	case "name":
		if vals, ok := val.AsList(); ok {
			if len(vals) > 0 {
				b.entry.Name = strPtr(vals[0])
			}
		} else {
			log.Printf("mf2: unexpected name shape")
		}
	case "category":
		switch val.Kind() {
		case KindSingle:
			c, _ := val.AsSingle()
			b.addCategory(c)
		case KindList:
			cs, _ := val.AsList()
			for _, c := range cs {
				b.addCategory(c)
			}
		default:
			log.Printf("mf2: unexpected category shape")
		}
	case "published":
		if dates, ok := val.AsList(); ok && len(dates) == 1 {
			b.entry.CreatedAt = strPtr(dates[0])
		} else {
			log.Printf("mf2: unexpected published shape")
		}
	case "mp-slug":
		switch val.Kind() {
		case KindSingle:
			s, _ := val.AsSingle()
			b.entry.Slug = strPtr(s)
		case KindList:
			slugs, _ := val.AsList()
			if len(slugs) != 1 {
				log.Printf("mf2: unexpected mp-slug length %d", len(slugs))
				return
			}
			b.entry.Slug = strPtr(slugs[0])
		default:
			log.Printf("mf2: unexpected mp-slug shape")
		}
	case "bookmark-of":
		// Multi-value bookmark-of is dropped without a warning, unlike the
		// other expect-single properties.
		// TODO flag this asymmetry: should a len != 1 array warn like published?
		if urls, ok := val.AsList(); ok && len(urls) == 1 {
			b.entry.BookmarkOf = strPtr(urls[0])
		}
	case "photo":
		decodePhoto(b, val)
	}
}

func decodeContent(b *builder, val PropertyValue) {
	switch val.Kind() {
	case KindList:
		vals, _ := val.AsList()
		if len(vals) > 0 {
			b.setContent(vals[0])
		}
	case KindObjectList:
		objs, _ := val.AsObjectList()
		if len(objs) == 0 {
			return
		}
		// e.g. {"content": [{"html": "..."}]} from quill
		obj := objs[0]
		if html, ok := obj["html"]; ok {
			if s, ok := html.AsSingle(); ok {
				b.entry.ContentFormat = FormatHTML
				b.setContent(s)
				return
			}
		}
		if md, ok := obj["markdown"]; ok {
			if s, ok := md.AsSingle(); ok {
				b.entry.ContentFormat = FormatMarkdown
				b.setContent(s)
				return
			}
		}
		log.Printf("mf2: unexpected content object keys")
	case KindSingle:
		s, _ := val.AsSingle()
		b.setContent(s)
	default:
		log.Printf("mf2: unexpected content shape")
	}
}

// decodePhoto resolves every shape a photo array can arrive in. Clients mix
// bare URLs and {value, alt} objects within the same array, so ValueList
// recurses element by element using the same rules.
func decodePhoto(b *builder, val PropertyValue) {
	switch val.Kind() {
	case KindSingle:
		u, _ := val.AsSingle()
		b.entry.Photos = append(b.entry.Photos, Photo{URL: u})
	case KindList:
		urls, _ := val.AsList()
		for _, u := range urls {
			b.entry.Photos = append(b.entry.Photos, Photo{URL: u})
		}
	case KindObject:
		obj, _ := val.AsObject()
		if p, ok := photoFromObject(obj); ok {
			b.entry.Photos = append(b.entry.Photos, p)
		}
	case KindObjectList:
		objs, _ := val.AsObjectList()
		for _, obj := range objs {
			if p, ok := photoFromObject(obj); ok {
				b.entry.Photos = append(b.entry.Photos, p)
			}
		}
	case KindValueList:
		vals, _ := val.AsValueList()
		for _, v := range vals {
			decodePhoto(b, v)
		}
	}
}

func photoFromObject(obj map[string]PropertyValue) (Photo, bool) {
	value, ok := obj["value"]
	if !ok {
		return Photo{}, false
	}
	u, ok := value.AsSingle()
	if !ok {
		return Photo{}, false
	}
	p := Photo{URL: u}
	if alt, ok := obj["alt"]; ok {
		if a, ok := alt.AsSingle(); ok {
			p.Alt = strPtr(a)
		}
	}
	return p, true
}

// DecodeForm decodes an application/x-www-form-urlencoded create document.
// Pairs are processed in submission order so repeated category keys keep
// their order.
func DecodeForm(body []byte) (*Entry, error) {
	b := &builder{}

	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}

		switch key {
		case "access_token":
			b.entry.AccessToken = strPtr(val)
		case "h":
			b.entry.Kind = val
		case "content", "content[html]":
			b.setContent(val)
			if key == "content[html]" {
				b.entry.ContentFormat = FormatHTML
			}
		case "category", "category[]":
			b.addCategory(val)
		case "name":
			b.entry.Name = strPtr(val)
		case "bookmark-of":
			b.entry.BookmarkOf = strPtr(val)
		case "mp-slug":
			b.entry.Slug = strPtr(val)
		default:
			// Unknown form keys are ignored.
		}
	}

	return b.build()
}
