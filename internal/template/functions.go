package template

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// CustomFuncMap returns the custom template functions available in templates.
func CustomFuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"toLower":   strings.ToLower,
		"toUpper":   strings.ToUpper,
		"replace":   strings.ReplaceAll,
		"trimSpace": strings.TrimSpace,
		"contains":  strings.Contains,
		"join":      strings.Join,
		"indent": func(spaces int, s string) string {
			pad := strings.Repeat(" ", spaces)
			lines := strings.Split(s, "\n")
			for i, line := range lines {
				if line != "" {
					lines[i] = pad + line
				}
			}
			return strings.Join(lines, "\n")
		},
		"duration": func(d time.Duration) string {
			if d < time.Second {
				return d.Round(time.Millisecond).String()
			}
			return d.Round(10 * time.Millisecond).String()
		},
		"seconds": func(d time.Duration) string {
			return fmt.Sprintf("%.3f", d.Seconds())
		},
		"statusLabel": func(s domain.Status) string {
			switch s {
			case domain.StatusPassed:
				return "[PASS]"
			case domain.StatusFailed:
				return "[FAIL]"
			}
			return "[SKIP]"
		},
		// stepRef renders a failing index; -1 means the session never started.
		"stepRef": func(i int) string {
			if i < 0 {
				return "setup"
			}
			return fmt.Sprintf("step %d", i)
		},
		"xml": func(s string) string {
			var buf bytes.Buffer
			_ = xml.EscapeText(&buf, []byte(s))
			return buf.String()
		},
		"mdEscape": func(s string) string {
			s = strings.ReplaceAll(s, "|", `\|`)
			return strings.ReplaceAll(s, "\n", " ")
		},
	}
}
