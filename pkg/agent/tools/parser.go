package tools

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

const (
	defaultServerName = "browser"
	maxXMLSize        = 10 * 1024 * 1024 // 10MB limit for XML tool calls
	argumentsTagName  = "arguments"
)

const (
	toolOpenTag  = "<tool>"
	toolCloseTag = "</tool>"
	cdataOpen    = "<![CDATA["
	cdataClose   = "]]>"
)

// ampersandEntityRegex matches ampersands that are already part of XML entities
// to avoid double-escaping them. Matches: &amp; &lt; &gt; &quot; &apos; &#123; &#xAB;
var ampersandEntityRegex = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);`)

// ParseToolCall extracts the first tool call from text that contains
// XML-formatted tool invocations.
//
// Expected format (Pure XML with CDATA):
//
//	<tool>
//	<server_name>browser</server_name>
//	<tool_name>evaluate</tool_name>
//	<arguments>
//	  <script><![CDATA[document.querySelectorAll("a").length]]></script>
//	</arguments>
//	</tool>
//
// Returns the parsed ToolCall and the remaining text after removing the tool call,
// or an error if parsing fails.
func ParseToolCall(text string) (*ToolCall, string, error) {
	// Check XML size limit to prevent DOS attacks
	if len(text) > maxXMLSize {
		return nil, text, fmt.Errorf("tool call XML exceeds maximum size of %d bytes", maxXMLSize)
	}

	spans, _ := toolCallSpans(text)
	if len(spans) < 1 {
		return nil, text, fmt.Errorf("no tool call found in text")
	}

	// Extract the full <tool> element including tags
	toolXML := strings.TrimSpace(text[spans[0][0]:spans[0][1]])

	var toolCall ToolCall
	if err := UnmarshalXMLWithFallback([]byte(toolXML), &toolCall); err != nil {
		// Include XML snippet in error for better debugging
		snippet := toolXML
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, text, fmt.Errorf("failed to unmarshal tool call XML: %w\nXML snippet: %s", err, snippet)
	}

	// Validate required fields
	if toolCall.ToolName == "" {
		return nil, text, fmt.Errorf("tool_name is required in tool call")
	}

	// Server name defaults to "browser" if not specified
	if toolCall.ServerName == "" {
		toolCall.ServerName = defaultServerName
	}

	// Remove the tool calls from the text
	var remaining strings.Builder
	prev := 0
	for _, span := range spans {
		remaining.WriteString(text[prev:span[0]])
		prev = span[1]
	}
	remaining.WriteString(text[prev:])
	remainingText := strings.TrimSpace(remaining.String())

	return &toolCall, remainingText, nil
}

// ParseToolCalls extracts every tool call in text, in order of appearance.
// Parsing stops at the first malformed call; calls parsed before it are returned
// along with the error.
func ParseToolCalls(text string) ([]*ToolCall, error) {
	if len(text) > maxXMLSize {
		return nil, fmt.Errorf("tool call XML exceeds maximum size of %d bytes", maxXMLSize)
	}

	spans, _ := toolCallSpans(text)
	var calls []*ToolCall
	for _, span := range spans {
		call, _, err := ParseToolCall(text[span[0]:span[1]])
		if err != nil {
			return calls, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// SplitCompleteToolCalls splits streamed text into the part holding every
// complete tool call and the rest, which is the start of a call still being
// written or empty. Text between calls lands in complete.
func SplitCompleteToolCalls(text string) (complete, rest string) {
	if _, open := toolCallSpans(text); open >= 0 {
		return text[:open], text[open:]
	}
	return text, ""
}

// toolCallSpans returns the [start, end) offsets of every complete <tool>
// element in text, and the offset of a <tool> that is not closed yet or -1.
// Tags inside CDATA sections are content, not markup.
func toolCallSpans(text string) (spans [][2]int, open int) {
	open = -1
	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], cdataOpen):
			end := strings.Index(text[i+len(cdataOpen):], cdataClose)
			if end < 0 {
				return spans, open
			}
			i += len(cdataOpen) + end + len(cdataClose)
		case open < 0 && strings.HasPrefix(text[i:], toolOpenTag):
			open = i
			i += len(toolOpenTag)
		case open >= 0 && strings.HasPrefix(text[i:], toolCloseTag):
			i += len(toolCloseTag)
			spans = append(spans, [2]int{open, i})
			open = -1
		default:
			i++
		}
	}
	return spans, open
}

// ValidateToolCall checks if a ToolCall has all required fields.
func ValidateToolCall(tc *ToolCall) error {
	if tc == nil {
		return fmt.Errorf("tool call is nil")
	}
	if tc.ToolName == "" {
		return fmt.Errorf("tool_name is required")
	}
	if tc.ServerName == "" {
		return fmt.Errorf("server_name is required")
	}
	return nil
}

// UnmarshalXMLWithFallback attempts to unmarshal XML, with fallback to
// escape unescaped ampersands if the initial parse fails.
// Scripts and URLs passed as arguments often carry unescaped & characters.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	// Try normal unmarshaling first
	err := xml.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	// If parse failed, try escaping unescaped ampersands
	escaped := escapeUnescapedAmpersands(data)
	return xml.Unmarshal(escaped, v)
}

// escapeUnescapedAmpersands replaces bare & with &amp; while preserving
// existing entities (&amp;, &lt;, &gt;, &quot;, &apos;, &#..;)
func escapeUnescapedAmpersands(data []byte) []byte {
	// Convert to string for regex processing
	text := string(data)

	// Find all positions of ampersands that are already part of entities
	entityPositions := make(map[int]bool)
	matches := ampersandEntityRegex.FindAllStringIndex(text, -1)
	for _, match := range matches {
		// Mark the position of the & that starts this entity
		entityPositions[match[0]] = true
	}

	// Build result by escaping ampersands that aren't in entityPositions
	var result strings.Builder
	result.Grow(len(text) + 20) // Pre-allocate with some extra space for escapes

	for i := 0; i < len(text); i++ {
		if text[i] == '&' && !entityPositions[i] {
			// This is an unescaped ampersand - escape it
			result.WriteString("&amp;")
		} else {
			result.WriteByte(text[i])
		}
	}

	return []byte(result.String())
}

// XMLToMap converts XML bytes to a map[string]interface{} by parsing the XML structure.
// This is useful for extracting arguments from tool calls in a generic way.
func XMLToMap(data []byte) (map[string]interface{}, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	result := make(map[string]interface{})

	var currentPath []string
	var currentText strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			// Skip the root <arguments> tag
			if t.Name.Local == argumentsTagName && len(currentPath) == 0 {
				currentPath = append(currentPath, t.Name.Local)
				continue
			}
			currentPath = append(currentPath, t.Name.Local)
			currentText.Reset()

		case xml.EndElement:
			if len(currentPath) == 0 {
				continue
			}

			elementName := currentPath[len(currentPath)-1]
			currentPath = currentPath[:len(currentPath)-1]

			// Skip the root </arguments> tag
			if elementName == argumentsTagName && len(currentPath) == 0 {
				continue
			}

			// Only process elements that are direct children of <arguments>
			if len(currentPath) == 1 && currentPath[0] == argumentsTagName {
				text := strings.TrimSpace(currentText.String())
				if text != "" {
					result[elementName] = text
				}
			}
			currentText.Reset()

		case xml.CharData:
			currentText.Write(t)
		}
	}

	return result, nil
}

var xmlNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// MapToArgumentsXML renders a generic argument map as an <arguments> block,
// the inverse of XMLToMap for flat maps. Keys are emitted in sorted order,
// nested maps become nested elements and slices become repeated <value> children.
func MapToArgumentsXML(args map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<" + argumentsTagName + ">")
	if err := writeXMLFields(&buf, args); err != nil {
		return nil, err
	}
	buf.WriteString("</" + argumentsTagName + ">")
	return buf.Bytes(), nil
}

func writeXMLFields(buf *bytes.Buffer, fields map[string]interface{}) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writeXMLValue(buf, k, fields[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeXMLValue(buf *bytes.Buffer, name string, value interface{}) error {
	if !xmlNameRegex.MatchString(name) {
		return fmt.Errorf("invalid argument name %q", name)
	}

	buf.WriteString("<" + name + ">")
	switch v := value.(type) {
	case nil:
	case map[string]interface{}:
		if err := writeXMLFields(buf, v); err != nil {
			return err
		}
	case []interface{}:
		for _, item := range v {
			if err := writeXMLValue(buf, "value", item); err != nil {
				return err
			}
		}
	case []string:
		for _, item := range v {
			if err := writeXMLValue(buf, "value", item); err != nil {
				return err
			}
		}
	default:
		if err := xml.EscapeText(buf, []byte(fmt.Sprint(v))); err != nil {
			return err
		}
	}
	buf.WriteString("</" + name + ">")
	return nil
}
