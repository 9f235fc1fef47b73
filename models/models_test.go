package models

import "testing"

func TestLastUser(t *testing.T) {
	cases := []struct {
		name string
		conv Conversation
		want string
	}{
		{
			name: "most recent user message wins",
			conv: Conversation{
				{Role: "user", Content: "first question"},
				{Role: "assistant", Content: "an answer"},
				{Role: "user", Content: "follow up"},
			},
			want: "follow up",
		},
		{
			name: "skips trailing assistant turn",
			conv: Conversation{
				{Role: "user", Content: "only question"},
				{Role: "assistant", Content: "closing remark"},
			},
			want: "only question",
		},
		{
			name: "falls back to last message of any role",
			conv: Conversation{
				{Role: "system", Content: "be terse"},
				{Role: "assistant", Content: "hello"},
			},
			want: "hello",
		},
		{
			name: "empty conversation",
			conv: Conversation{},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.conv.LastUser(); got != tc.want {
				t.Fatalf("LastUser() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	conv := Conversation{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	want := "USER: hi\n\nASSISTANT: hello"
	if got := conv.Flatten(); got != want {
		t.Fatalf("Flatten() = %q, want %q", got, want)
	}
}

func TestEmpty(t *testing.T) {
	if !(Conversation{}).Empty() {
		t.Fatal("zero-length conversation must be empty")
	}
	if !(Conversation{{Role: "user", Content: "   "}}).Empty() {
		t.Fatal("whitespace-only conversation must be empty")
	}
	if (Conversation{{Role: "user", Content: "hi"}}).Empty() {
		t.Fatal("conversation with content must not be empty")
	}
}
