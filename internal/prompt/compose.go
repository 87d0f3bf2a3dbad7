// Package prompt composes the text sent to the image and text models.
package prompt

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"banner-creator/internal/theme"
)

type Request struct {
	UserText     string
	MerchantName string
	TextOnRight  bool
	Theme        theme.Name
}

// Composition is a text-model request. Search asks for web search
// grounding.
type Composition struct {
	Text   string
	Search bool
}

// Compose builds the enrichment request for the International Payments
// product: the visual identity, a layout requirement, and either merchant
// research or scenario context.
func Compose(req Request) Composition {
	textSide, objectSide := sides(req.TextOnRight)
	userText := strings.TrimSpace(req.UserText)
	merchant := strings.TrimSpace(req.MerchantName)

	var b strings.Builder
	b.Grow(4096)

	b.WriteString(systemPrompt + "\n\n")
	b.WriteString("VISUAL DNA & RULES:\n")
	b.WriteString("- Summary: " + visualSummary + "\n")
	writeSection(&b, "Mandatory elements", mandatoryElements)
	rules := make([]string, 0, len(visualRules))
	for _, r := range visualRules {
		rules = append(rules, r.Name+": "+r.Rule)
	}
	writeSection(&b, "Visual rules", rules)
	if sync, ok := themeSync[req.Theme]; ok {
		writeSection(&b, "Theme", []string{sync})
	}

	b.WriteString("\nLAYOUT REQUIREMENT:\n")
	fmt.Fprintf(&b, "- The text will overlay on the %s side of the banner.\n", textSide)
	fmt.Fprintf(&b, "- Place objects on the %s side of the image. Say 'objects concentrated on the %s side, leaving generous negative space on the %s side for text overlay.'\n\n",
		objectSide, strings.ToLower(objectSide), strings.ToLower(textSide))

	if merchant != "" {
		brief := userText
		if brief == "" {
			brief = "Create a co-branded visual for this merchant."
		}
		fmt.Fprintf(&b, "Merchant Name: %q.\nContext: %s\n\n", merchant, brief)
		b.WriteString("MERCHANT CONTEXT RULES:\n" + merchantInstructions + "\n\n")
		b.WriteString("DOMAIN MAPPING REFERENCE:\n")
		for _, d := range domains {
			line := d.Name + ": " + strings.Join(d.Objects, ", ")
			if len(d.KeyAccounts) > 0 {
				line += " (key accounts: " + strings.Join(d.KeyAccounts, ", ") + ")"
			}
			b.WriteString("- " + line + "\n")
		}
		b.WriteString("\nTask: 1. Search for what this merchant does. 2. Identify their domain. 3. Blend domain objects with IP 3D coins/globe as per rules.\n")
		return Composition{Text: b.String(), Search: true}
	}

	focus := userText
	if focus == "" {
		focus = DefaultScenario
	}
	fmt.Fprintf(&b, "Scenario/Focus: %q.\n\nSCENARIO TEMPLATES:\n", focus)
	for _, s := range scenarios {
		b.WriteString("- " + s.Name + ": " + s.Focus + "\n")
	}
	b.WriteString("\nTask: Create a detailed image generation prompt for the selected scenario following the IP Visual DNA rules.\n")
	return Composition{Text: b.String()}
}

// ImagePrompt appends the layout safety instruction: the subject goes on the
// side opposite the text.
func ImagePrompt(prompt string, textOnRight bool) string {
	textSide, subjectSide := sides(textOnRight)
	return fmt.Sprintf("%s. CRITICAL: Main subject on the %s, negative space on the %s. High resolution, 8k, 3D render, photorealistic, no text.",
		strings.TrimSpace(prompt), subjectSide, textSide)
}

func sides(textOnRight bool) (textSide, objectSide string) {
	if textOnRight {
		return "RIGHT", "LEFT"
	}
	return "LEFT", "RIGHT"
}

// PlainText flattens a markdown reply into plain lines so headings, bullets
// and emphasis markers do not leak into the image prompt.
func PlainText(markdown string) string {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch nd := n.(type) {
		case *ast.Text:
			if entering {
				cur.Write(nd.Segment.Value(src))
				if nd.SoftLineBreak() || nd.HardLineBreak() {
					cur.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				cur.Write(nd.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				flush()
				for i := 0; i < n.Lines().Len(); i++ {
					seg := n.Lines().At(i)
					cur.Write(seg.Value(src))
					flush()
				}
			}
			return ast.WalkSkipChildren, nil
		default:
			if !entering && n.Type() == ast.TypeBlock {
				flush()
			}
		}
		return ast.WalkContinue, nil
	})
	flush()
	return strings.Join(lines, "\n")
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("- " + title + ":\n")
	for _, line := range lines {
		b.WriteString("  - " + line + "\n")
	}
}
