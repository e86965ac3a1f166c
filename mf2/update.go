package mf2

import (
	"fmt"
	"log"
	"strings"
)

// ProtocolError is a client-side violation of the Micropub update contract
// (bare scalar where an array is required, malformed delete payload). The
// whole directive is rejected; nothing is partially applied.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return e.msg }

func protocolErrorf(format string, args ...any) error {
	return &ProtocolError{msg: fmt.Sprintf(format, args...)}
}

// UpdateDirective is one parsed Micropub update request. Exactly one of
// DeleteProps (array form: remove whole properties) and DeleteValues
// (object form: remove the listed values only) is populated when the
// request carried a delete key.
type UpdateDirective struct {
	TargetSlug   string
	Replace      map[string][]PropertyValue
	Add          map[string][]PropertyValue
	DeleteProps  []string
	DeleteValues map[string][]PropertyValue
}

// CategoryDiff is the minimal set of category-table operations an applied
// directive requires. ReplaceAll/RemoveAll clear the stored set first; Set,
// Add and Remove list values in directive order.
type CategoryDiff struct {
	ReplaceAll bool
	Set        []string
	Add        []string
	Remove     []string
	RemoveAll  bool
}

// Empty reports whether the diff requires no category-table writes.
func (d CategoryDiff) Empty() bool {
	return !d.ReplaceAll && !d.RemoveAll && len(d.Add) == 0 && len(d.Remove) == 0
}

// ParseUpdate validates the wire form of an update request. data is the
// decoded JSON body; publicURL is the site base the target url must live
// under. Every replace/add value must be array-wrapped even when single; a
// bare scalar is rejected, not coerced.
func ParseUpdate(data map[string]any, publicURL string) (*UpdateDirective, error) {
	rawURL, ok := data["url"]
	if !ok {
		return nil, protocolErrorf("update requires a url")
	}
	target, ok := rawURL.(string)
	if !ok {
		return nil, protocolErrorf("url must be a string")
	}

	base := strings.TrimRight(publicURL, "/") + "/"
	if !strings.HasPrefix(target, base) {
		return nil, protocolErrorf("url %q is not managed by this site", target)
	}
	slug := strings.Trim(strings.TrimPrefix(target, base), "/")
	if slug == "" {
		return nil, protocolErrorf("url %q does not name a post", target)
	}

	d := &UpdateDirective{TargetSlug: slug}

	var err error
	if d.Replace, err = parseMutationMap(data, "replace"); err != nil {
		return nil, err
	}
	if d.Add, err = parseMutationMap(data, "add"); err != nil {
		return nil, err
	}

	if raw, ok := data["delete"]; ok {
		switch del := raw.(type) {
		case []any:
			for i, e := range del {
				name, ok := e.(string)
				if !ok {
					return nil, protocolErrorf("delete[%d] must be a property name", i)
				}
				d.DeleteProps = append(d.DeleteProps, name)
			}
		case map[string]any:
			d.DeleteValues = make(map[string][]PropertyValue, len(del))
			for prop, rawVals := range del {
				vals, err := parseWrappedValues("delete", prop, rawVals)
				if err != nil {
					return nil, err
				}
				d.DeleteValues[prop] = vals
			}
		default:
			return nil, protocolErrorf("delete must be an array of property names or an object")
		}
	}

	return d, nil
}

func parseMutationMap(data map[string]any, key string) (map[string][]PropertyValue, error) {
	raw, ok := data[key]
	if !ok {
		return nil, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, protocolErrorf("%s must be an object mapping property to array of values", key)
	}

	out := make(map[string][]PropertyValue, len(m))
	for prop, rawVals := range m {
		vals, err := parseWrappedValues(key, prop, rawVals)
		if err != nil {
			return nil, err
		}
		out[prop] = vals
	}
	return out, nil
}

// parseWrappedValues enforces the array-wrapping rule and classifies each
// element of the array.
func parseWrappedValues(op, prop string, raw any) ([]PropertyValue, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, protocolErrorf("%s.%s must be an array, even for single values", op, prop)
	}

	out := make([]PropertyValue, 0, len(arr))
	for i, e := range arr {
		v, err := classifyValue(e)
		if err != nil {
			return nil, protocolErrorf("%s.%s[%d]: %v", op, prop, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ApplyUpdate computes the post-directive entry state and the category
// table diff. Processing order is fixed: replace, then add, then delete —
// for category the three are not commutative. The input entry is never
// mutated; persistence happens afterwards in one atomic write.
func ApplyUpdate(current Entry, d *UpdateDirective) (Entry, CategoryDiff, error) {
	entry := current.Clone()
	var diff CategoryDiff

	for prop, vals := range d.Replace {
		switch prop {
		case "content":
			applyContentReplace(&entry, vals)
		case "name":
			if len(vals) == 0 {
				entry.Name = nil
				break
			}
			if s, ok := vals[0].AsSingle(); ok {
				entry.Name = strPtr(s)
			} else {
				log.Printf("mf2: unexpected name replacement shape, entry unchanged")
			}
		case "category":
			diff.ReplaceAll = true
			diff.Set = singlesOf(vals, "replace.category")
			entry.Categories = append([]string(nil), diff.Set...)
		default:
			log.Printf("mf2: ignoring replace of unknown property %q", prop)
		}
	}

	for prop, vals := range d.Add {
		switch prop {
		case "category":
			diff.Add = singlesOf(vals, "add.category")
			entry.Categories = append(entry.Categories, diff.Add...)
		default:
			log.Printf("mf2: ignoring add of unknown property %q", prop)
		}
	}

	for _, prop := range d.DeleteProps {
		switch prop {
		case "category":
			diff.RemoveAll = true
			entry.Categories = []string{}
		default:
			log.Printf("mf2: ignoring delete of unknown property %q", prop)
		}
	}

	for prop, vals := range d.DeleteValues {
		switch prop {
		case "category":
			diff.Remove = singlesOf(vals, "delete.category")
			entry.Categories = removeValues(entry.Categories, diff.Remove)
		default:
			log.Printf("mf2: ignoring delete of unknown property %q", prop)
		}
	}

	return entry, diff, nil
}

func applyContentReplace(entry *Entry, vals []PropertyValue) {
	if len(vals) == 0 {
		log.Printf("mf2: empty content replacement, entry unchanged")
		return
	}

	switch vals[0].Kind() {
	case KindSingle:
		s, _ := vals[0].AsSingle()
		entry.Content = s
		entry.ContentFormat = FormatPlain
	case KindObject:
		obj, _ := vals[0].AsObject()
		if html, ok := obj["html"]; ok {
			if s, ok := html.AsSingle(); ok {
				entry.Content = s
				entry.ContentFormat = FormatHTML
				return
			}
		}
		log.Printf("mf2: unexpected content replacement object, entry unchanged")
	default:
		log.Printf("mf2: unexpected content replacement shape, entry unchanged")
	}
}

func singlesOf(vals []PropertyValue, where string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.AsSingle(); ok {
			out = append(out, s)
		} else {
			log.Printf("mf2: skipping non-scalar value in %s", where)
		}
	}
	return out
}

func removeValues(values []string, toRemove []string) []string {
	remaining := make([]string, 0, len(values))
	for _, v := range values {
		removed := false
		for _, r := range toRemove {
			if v == r {
				removed = true
				break
			}
		}
		if !removed {
			remaining = append(remaining, v)
		}
	}
	return remaining
}
