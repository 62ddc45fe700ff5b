package stockagent

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

const promptDateLayout = "Monday, 2 de January de 2006, 15:04"

// formatSpanishDate renders t like "viernes, 17 de octubre de 2026, 14:05".
func formatSpanishDate(t time.Time) string {
	return monday.Format(t, promptDateLayout, monday.LocaleEsES)
}

// buildSystemPrompt assembles the per-turn system block. It is never persisted.
func buildSystemPrompt(now time.Time, userName, userID, userRole string, withTools bool) string {
	var sb strings.Builder
	sb.WriteString("Instrucciones del Sistema:\n")
	fmt.Fprintf(&sb, "- Hoy es: %s.\n", formatSpanishDate(now))
	fmt.Fprintf(&sb, "- Estás hablando con el usuario: %q (ID: %s).\n", userName, userID)
	fmt.Fprintf(&sb, "- Su rol es: %q.\n", userRole)
	sb.WriteString("- Responde siempre teniendo en cuenta esta información.")
	if withTools {
		sb.WriteString("\n- Para cualquier pregunta sobre productos, máquinas o proveedores usa las herramientas disponibles en lugar de suponer la respuesta.")
		sb.WriteString("\n- Si las herramientas no encuentran información, dilo con honestidad.")
	}
	return sb.String()
}
