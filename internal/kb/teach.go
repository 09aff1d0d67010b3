package kb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lorenco/sean/internal/model"
)

// TeachInput is the parsed payload of a teach message.
type TeachInput struct {
	Layer            string
	ScopeType        string
	ScopeClientID    string
	Title            string
	ContentText      string
	Language         string
	PrimaryDomain    string
	Tags             []string
	SecondaryDomains []string
}

var teachPrefix = regexp.MustCompile(`(?i)^(LEER:|TEACH:|SAVE TO KNOWLEDGE:)`)

// IsTeachMessage reports whether the message carries a teach prefix.
func IsTeachMessage(content string) bool {
	return teachPrefix.MatchString(content)
}

// ParseTeachMessage parses a LEER:/TEACH:/SAVE TO KNOWLEDGE: message into a
// TeachInput. Metadata lines (LAYER:, CLIENT:, TITLE:, TAGS:, LANGUAGE:,
// DOMAIN:, SECONDARY_DOMAINS:, CONTENT:) are read until the first content
// line; everything after becomes the item content.
func ParseTeachMessage(content string) (*TeachInput, error) {
	prefix := teachPrefix.FindString(content)
	if prefix == "" {
		return nil, fmt.Errorf("not a teach message")
	}

	afterPrefix := strings.TrimSpace(content[len(prefix):])
	lines := strings.Split(afterPrefix, "\n")

	input := &TeachInput{
		Layer:         model.LayerFirm,
		ScopeType:     model.ScopeGlobal,
		Language:      "EN",
		PrimaryDomain: model.DomainOther,
	}

	contentStart := 0
	var contentText string

metadata:
	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "LAYER:"):
			value := strings.ToUpper(strings.TrimSpace(line[len("LAYER:"):]))
			switch value {
			case model.LayerLegal, model.LayerFirm, model.LayerClient:
				input.Layer = value
			}
		case strings.HasPrefix(line, "CLIENT:"):
			input.ScopeType = model.ScopeClient
			input.ScopeClientID = strings.TrimSpace(line[len("CLIENT:"):])
		case strings.HasPrefix(line, "TITLE:"):
			input.Title = strings.TrimSpace(line[len("TITLE:"):])
		case strings.HasPrefix(line, "TAGS:"):
			for _, tag := range strings.Split(strings.TrimSpace(line[len("TAGS:"):]), ",") {
				if t := strings.TrimSpace(tag); t != "" {
					input.Tags = append(input.Tags, t)
				}
			}
		case strings.HasPrefix(line, "LANGUAGE:"):
			value := strings.ToUpper(strings.TrimSpace(line[len("LANGUAGE:"):]))
			switch value {
			case "AF", "EN", "MIXED":
				input.Language = value
			}
		case strings.HasPrefix(line, "SECONDARY_DOMAINS:"):
			for _, d := range strings.Split(strings.TrimSpace(line[len("SECONDARY_DOMAINS:"):]), ",") {
				domain := strings.ToUpper(strings.TrimSpace(d))
				if domain != "" && model.IsValidDomain(domain) {
					input.SecondaryDomains = append(input.SecondaryDomains, domain)
				}
			}
		case strings.HasPrefix(line, "DOMAIN:"):
			value := strings.ToUpper(strings.TrimSpace(line[len("DOMAIN:"):]))
			if model.IsValidDomain(value) {
				input.PrimaryDomain = value
			}
		case strings.HasPrefix(line, "CONTENT:"):
			contentText = strings.TrimSpace(line[len("CONTENT:"):])
			contentStart = i + 1
			break metadata
		case line == "":
			contentStart = i + 1
			break metadata
		default:
			// First non-metadata line starts the content.
			contentStart = i
			break metadata
		}
	}

	if contentText == "" && contentStart < len(lines) {
		contentText = strings.TrimSpace(strings.Join(lines[contentStart:], "\n"))
	}
	input.ContentText = contentText

	if input.Title == "" && contentText != "" {
		firstLine := strings.SplitN(contentText, "\n", 2)[0]
		if len(firstLine) > 60 {
			firstLine = firstLine[:60]
		}
		if strings.HasSuffix(firstLine, ".") {
			input.Title = firstLine
		} else {
			input.Title = firstLine + "..."
		}
	}

	if input.ContentText == "" {
		return nil, fmt.Errorf("no content provided: add content after CONTENT: or after the metadata lines")
	}
	if input.Layer == model.LayerClient && input.ScopeClientID == "" {
		return nil, fmt.Errorf("CLIENT layer requires a CLIENT: field with a client ID")
	}

	return input, nil
}
