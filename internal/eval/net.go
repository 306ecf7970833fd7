package eval

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/gopa-lang/gopa/internal/ast"
	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/perm"
)

// httpGet performs `get "url" using k is v ...`. Params become the query
// string; the response body is decoded from JSON when possible.
func (in *Interp) httpGet(env *object.Env, x *ast.HTTPGet) (object.Value, error) {
	if err := in.perms.Check(perm.Network); err != nil {
		return object.Nothing, err
	}
	u, err := url.Parse(x.URL)
	if err != nil {
		return object.Nothing, errf(ErrNetwork, x.Line(), "bad url %q: %v", x.URL, err)
	}
	q := u.Query()
	for _, p := range x.Params {
		v, err := in.evalExpr(env, p.Value)
		if err != nil {
			return object.Nothing, err
		}
		q.Set(p.Key, v.String())
	}
	u.RawQuery = q.Encode()

	resp, err := in.httpc.Get(u.String())
	if err != nil {
		return object.Nothing, errf(ErrNetwork, x.Line(), "get %s: %v", x.URL, err)
	}
	return in.decodeResponse(x.URL, x.Line(), resp)
}

// httpPost performs `add to "url" using k is v ...` as a JSON POST.
func (in *Interp) httpPost(env *object.Env, x *ast.HTTPPost) (object.Value, error) {
	if err := in.perms.Check(perm.Network); err != nil {
		return object.Nothing, err
	}
	payload := make(map[string]any, len(x.Body))
	for _, p := range x.Body {
		v, err := in.evalExpr(env, p.Value)
		if err != nil {
			return object.Nothing, err
		}
		payload[p.Key] = toAny(v)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return object.Nothing, errf(ErrNetwork, x.Line(), "post %s: %v", x.URL, err)
	}

	resp, err := in.httpc.Post(x.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return object.Nothing, errf(ErrNetwork, x.Line(), "post %s: %v", x.URL, err)
	}
	return in.decodeResponse(x.URL, x.Line(), resp)
}

func (in *Interp) decodeResponse(url string, line int, resp *http.Response) (object.Value, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return object.Nothing, errf(ErrNetwork, line, "reading %s: %v", url, err)
	}
	if resp.StatusCode >= 400 {
		return object.Nothing, errf(ErrNetwork, line, "%s returned status %d", url, resp.StatusCode)
	}
	if len(data) == 0 {
		return object.NewDict(), nil
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		// Non-JSON bodies come back as plain strings.
		return object.String(string(data)), nil
	}
	return fromAny(decoded), nil
}

// fromAny converts a decoded JSON value into a runtime value. Object
// keys keep their decoded order as far as encoding/json allows, which
// is map order; dictionaries built this way still iterate in the order
// the keys were inserted here.
func fromAny(v any) object.Value {
	switch t := v.(type) {
	case nil:
		return object.Nothing
	case bool:
		return object.Boolean(t)
	case float64:
		return object.Number(t)
	case string:
		return object.String(t)
	case []any:
		elems := make([]object.Value, len(t))
		for i, el := range t {
			elems[i] = fromAny(el)
		}
		return object.NewList(elems...)
	case map[string]any:
		d := object.NewDict()
		for _, k := range sortedKeys(t) {
			d.Map.Set(k, fromAny(t[k]))
		}
		return d
	default:
		return object.Nothing
	}
}

// toAny converts a runtime value to a JSON-encodable one.
func toAny(v object.Value) any {
	switch v.Kind {
	case object.KindNothing:
		return nil
	case object.KindNumber:
		return v.Num
	case object.KindString:
		return v.Str
	case object.KindBoolean:
		return v.Bool
	case object.KindList:
		out := make([]any, len(v.List.Elems))
		for i, el := range v.List.Elems {
			out[i] = toAny(el)
		}
		return out
	case object.KindDict, object.KindObject:
		out := make(map[string]any, v.Map.Len())
		for _, k := range v.Map.Keys() {
			val, _ := v.Map.Get(k)
			out[k] = toAny(val)
		}
		return out
	default:
		return v.String()
	}
}

// sortedKeys gives JSON objects a deterministic key order, since Go
// maps iterate randomly.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
