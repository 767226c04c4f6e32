// Package i18n resolves issue codes into human-readable messages. The
// default dictionary ships English and Japanese; applications may install
// their own Translator.
package i18n

import "fmt"

// Translator retrieves localized messages for issue codes. params carries
// the structured issue parameters (for example "ge" or "max_length") for
// interpolation.
type Translator interface {
	Message(code string, params map[string]any) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var enMessages = map[string]string{
	"bool_type":               "input should be a valid boolean",
	"bool_parsing":            "input could not be parsed as a boolean",
	"int_type":                "input should be a valid integer",
	"int_parsing":             "input could not be parsed as an integer",
	"int_from_float":          "input should be a valid integer, got a number with a fractional part",
	"float_type":              "input should be a valid number",
	"float_parsing":           "input could not be parsed as a number",
	"decimal_type":            "input should be a valid decimal",
	"decimal_parsing":         "input could not be parsed as a decimal",
	"string_type":             "input should be a valid string",
	"bytes_type":              "input should be valid bytes",
	"bytes_encoding":          "input could not be decoded as base64",
	"datetime_type":           "input should be a valid datetime",
	"datetime_parsing":        "input could not be parsed as a datetime",
	"finite_number":           "input should be a finite number",
	"greater_than":            "input should be greater than {gt}",
	"greater_than_equal":      "input should be greater than or equal to {ge}",
	"less_than":               "input should be less than {lt}",
	"less_than_equal":         "input should be less than or equal to {le}",
	"multiple_of":             "input should be a multiple of {multiple_of}",
	"string_too_short":        "string should have at least {min_length} characters",
	"string_too_long":         "string should have at most {max_length} characters",
	"string_pattern_mismatch": "string should match pattern '{pattern}'",
	"too_short":               "input should have at least {min_length} items",
	"too_long":                "input should have at most {max_length} items",
	"set_item_duplicate":      "set items should be unique",
	"literal_error":           "input should be one of the permitted values",
	"missing":                 "field required",
	"extra_forbidden":         "extra inputs are not permitted",
	"frozen_field":            "field is frozen",
	"list_type":               "input should be a valid list",
	"tuple_type":              "input should be a valid tuple",
	"set_type":                "input should be a valid set",
	"dict_type":               "input should be a valid dictionary",
	"record_type":             "input should be a valid record",
	"none_required":           "input should be null",
	"union_invalid":           "input did not match any union branch",
	"union_tag_invalid":       "input tag does not match any known branch",
	"union_tag_not_found":     "unable to extract the union discriminator",
	"value_error":             "value error",
	"assertion_error":         "assertion failed",
	"recursion_error":         "recursion limit exceeded",
	"json_invalid":            "invalid JSON",
	"duplicate_key":           "duplicate key",
	"max_depth":               "maximum nesting depth exceeded",
	"truncated":               "input truncated",
}

var jaMessages = map[string]string{
	"bool_type":           "真偽値が必要です",
	"int_type":            "整数が必要です",
	"int_parsing":         "整数として解釈できません",
	"string_type":         "文字列が必要です",
	"missing":             "必須フィールドが不足しています",
	"extra_forbidden":     "未知のキーは許可されていません",
	"union_invalid":       "どのユニオン候補にも一致しません",
	"union_tag_invalid":   "不明な識別子です",
	"union_tag_not_found": "識別子を取得できません",
	"recursion_error":     "再帰の上限を超えました",
	"json_invalid":        "JSON を解析できません",
	"duplicate_key":       "キーが重複しています",
	"truncated":           "入力が打ち切られました",
}

func (t dictTranslator) Message(code string, params map[string]any) string {
	var msg string
	if t.lang == "ja" {
		msg = jaMessages[code]
	}
	if msg == "" {
		msg = enMessages[code]
	}
	if msg == "" {
		return code
	}
	return interpolate(msg, params)
}

// interpolate replaces {name} placeholders with their parameter values.
func interpolate(msg string, params map[string]any) string {
	if len(params) == 0 {
		return msg
	}
	out := make([]byte, 0, len(msg))
	for i := 0; i < len(msg); i++ {
		if msg[i] != '{' {
			out = append(out, msg[i])
			continue
		}
		end := i + 1
		for end < len(msg) && msg[end] != '}' {
			end++
		}
		if end >= len(msg) {
			out = append(out, msg[i:]...)
			break
		}
		name := msg[i+1 : end]
		if v, ok := params[name]; ok {
			out = append(out, fmt.Sprint(v)...)
		} else {
			out = append(out, msg[i:end+1]...)
		}
		i = end
	}
	return string(out)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, params map[string]any) string { return currentTranslator.Message(code, params) }
