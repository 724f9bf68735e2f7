package anthropic

import "testing"

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: `{"printers": `},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: `["LaserJet Pro 4002dn"]}`},
		},
	}

	want := `{"printers": ["LaserJet Pro 4002dn"]}`
	if got := resp.Text(); got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
}
