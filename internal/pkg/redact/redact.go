// redact прячет чувствительные значения перед записью в лог.
package redact

import "strings"

func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Identifier редактирует идентификатор входа: e-mail — как Email,
// username — первые два символа.
func Identifier(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}

	if len(s) > 2 {
		return s[:2] + "***"
	}

	return "***"
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
