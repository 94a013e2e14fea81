package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolCall(t *testing.T) {
	text := `Clicking the login button.
<tool>
<tool_name>click</tool_name>
<arguments><selector>e3</selector></arguments>
</tool>
done`

	call, remaining, err := ParseToolCall(text)
	require.NoError(t, err)
	assert.Equal(t, "click", call.ToolName)
	assert.Equal(t, "browser", call.ServerName)
	assert.Equal(t, "<selector>e3</selector>", string(call.Arguments.InnerXML))
	assert.Equal(t, "Clicking the login button.\n\ndone", remaining)
}

func TestParseToolCallErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no call", "just text"},
		{"missing tool name", "<tool><arguments></arguments></tool>"},
		{"broken xml", "<tool><tool_name>x</tool_name><arguments><a></arguments></tool>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseToolCall(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestParseToolCalls(t *testing.T) {
	text := `<tool><tool_name>navigate</tool_name><arguments><url>https://a.test/?x=1&y=2</url></arguments></tool>
<tool><tool_name>getTitle</tool_name><arguments></arguments></tool>`

	calls, err := ParseToolCalls(text)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "navigate", calls[0].ToolName)
	assert.Equal(t, "getTitle", calls[1].ToolName)

	var args struct {
		URL string `xml:"url"`
	}
	require.NoError(t, UnmarshalXMLWithFallback(calls[0].GetArgumentsXML(), &args))
	assert.Equal(t, "https://a.test/?x=1&y=2", args.URL)
}

func TestParseToolCallsSkipsTagsInCDATA(t *testing.T) {
	text := `<tool><tool_name>evaluate</tool_name><arguments><script><![CDATA[document.body.innerHTML = "<tool>x</tool>"]]></script></arguments></tool>
<tool><tool_name>getTitle</tool_name></tool>`

	calls, err := ParseToolCalls(text)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "evaluate", calls[0].ToolName)
	assert.Equal(t, "getTitle", calls[1].ToolName)

	var args struct {
		Script string `xml:"script"`
	}
	require.NoError(t, UnmarshalXMLWithFallback(calls[0].GetArgumentsXML(), &args))
	assert.Equal(t, `document.body.innerHTML = "<tool>x</tool>"`, args.Script)
}

func TestSplitCompleteToolCalls(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		complete string
		rest     string
	}{
		{"plain text", "thinking\n", "thinking\n", ""},
		{"one call", "<tool><tool_name>a</tool_name></tool>\n", "<tool><tool_name>a</tool_name></tool>\n", ""},
		{"open call", "<tool><tool_name>a</tool_name></tool><tool>\n", "<tool><tool_name>a</tool_name></tool>", "<tool>\n"},
		{"close tag in CDATA", "<tool><arguments><![CDATA[</tool>]]>\n", "", "<tool><arguments><![CDATA[</tool>]]>\n"},
		{"unterminated CDATA", "<tool><arguments><![CDATA[if (a) {\n", "", "<tool><arguments><![CDATA[if (a) {\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			complete, rest := SplitCompleteToolCalls(tt.text)
			assert.Equal(t, tt.complete, complete)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestParseToolCallsTooLarge(t *testing.T) {
	_, err := ParseToolCalls(strings.Repeat("a", maxXMLSize+1))
	assert.Error(t, err)
}

func TestValidateToolCall(t *testing.T) {
	assert.Error(t, ValidateToolCall(nil))
	assert.Error(t, ValidateToolCall(&ToolCall{ServerName: "browser"}))
	assert.Error(t, ValidateToolCall(&ToolCall{ToolName: "click"}))
	assert.NoError(t, ValidateToolCall(&ToolCall{ServerName: "browser", ToolName: "click"}))
}

func TestEscapeUnescapedAmpersands(t *testing.T) {
	in := []byte(`<a>x & y &amp; z &#38; &lt;</a>`)
	assert.Equal(t, `<a>x &amp; y &amp; z &#38; &lt;</a>`, string(escapeUnescapedAmpersands(in)))
}

func TestXMLToMap(t *testing.T) {
	m, err := XMLToMap([]byte(`<arguments><selector> #go </selector><text>hi</text><empty></empty></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"selector": "#go", "text": "hi"}, m)
}

func TestMapToArgumentsXML(t *testing.T) {
	out, err := MapToArgumentsXML(map[string]interface{}{
		"selector": "a[href*='x&y']",
		"values":   []interface{}{"red", "blue"},
		"viewport": map[string]interface{}{"width": 800, "height": 600},
		"headless": true,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"<arguments><headless>true</headless><selector>a[href*=&#39;x&amp;y&#39;]</selector>"+
			"<values><value>red</value><value>blue</value></values>"+
			"<viewport><height>600</height><width>800</width></viewport></arguments>",
		string(out))

	_, err = MapToArgumentsXML(map[string]interface{}{"bad name": 1})
	assert.Error(t, err)
}
