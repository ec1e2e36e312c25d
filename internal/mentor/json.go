package mentor

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// parseObject 尽量从模型输出里抠出一个 JSON 对象：
// 1) 直接解析；2) 解析 "response" 字段里嵌套的 JSON；3) 正则截取 {...}。
func parseObject(raw string) (map[string]interface{}, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		// 模型有时把真正的 JSON 塞在 response 字符串里
		if inner, ok := obj["response"].(string); ok {
			var nested map[string]interface{}
			if err := json.Unmarshal([]byte(inner), &nested); err == nil {
				return nested, true
			}
		}
		return obj, true
	}

	if m := jsonObjectRe.FindString(raw); m != "" {
		if err := json.Unmarshal([]byte(m), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// parseStringList 从模型输出里取字符串数组，兼容裸数组和各种字段名。
func parseStringList(raw string, keys ...string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var arr []interface{}
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return toStringList(arr)
	}

	if obj, ok := parseObject(raw); ok {
		for _, key := range keys {
			if v, ok := obj[key].([]interface{}); ok && len(v) > 0 {
				return toStringList(v)
			}
		}
	}

	if m := jsonArrayRe.FindString(raw); m != "" {
		if err := json.Unmarshal([]byte(m), &arr); err == nil {
			return toStringList(arr)
		}
	}
	return nil
}

func toStringList(in []interface{}) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// stringField returns the first non-empty string under any of the keys.
func stringField(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// listField returns the first non-empty string list under any of the keys.
func listField(obj map[string]interface{}, keys ...string) []string {
	for _, key := range keys {
		if v, ok := obj[key].([]interface{}); ok {
			if out := toStringList(v); len(out) > 0 {
				return out
			}
		}
	}
	return nil
}
