package fences

import "testing"

func TestStrip_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "  \n\t ", ""},
		{"no fences", "  from manim import *\nclass A(Scene): pass\n", "from manim import *\nclass A(Scene): pass"},
		{"fenced with language", "```python\nfrom manim import *\n\nclass A(Scene):\n    pass\n```", "from manim import *\n\nclass A(Scene):\n    pass"},
		{"bare fences", "```\nx = 1\n```", "x = 1"},
		{"surrounding whitespace", "\n\n```python\nx = 1\n```\n\n", "x = 1"},
		{"crlf", "```python\r\nx = 1\r\ny = 2\r\n```", "x = 1\ny = 2"},
		{"opening fence only drops last line too", "```python\nx = 1\ny = 2", "x = 1"},
		{"closing fence only drops first line too", "x = 1\ny = 2\n```", "y = 2"},
		{"interior fence untouched", "x = 1\ns = '```'\ny = 2", "x = 1\ns = '```'\ny = 2"},
		{"lone fence", "```python", ""},
		{"single code line", "print('hi')", "print('hi')"},
		{"two fence lines", "```\n```", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Fatalf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrip_ThreeFencedLines(t *testing.T) {
	in := "```python\nfrom manim import *\nclass Demo(Scene):\n    def construct(self): self.play(Create(Circle()))\n```"
	want := "from manim import *\nclass Demo(Scene):\n    def construct(self): self.play(Create(Circle()))"
	if got := Strip(in); got != want {
		t.Fatalf("unexpected sanitized code:\n%s", got)
	}
}

func TestStrip_Idempotent(t *testing.T) {
	inputs := []string{
		"from manim import *\nclass A(Scene):\n    pass",
		"```python\nfrom manim import *\nclass A(Scene):\n    pass\n```",
		"  x = 1  ",
	}
	for _, in := range inputs {
		once := Strip(in)
		if twice := Strip(once); twice != once {
			t.Fatalf("Strip not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
