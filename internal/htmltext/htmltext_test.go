package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain paragraphs",
			in:   "<p>Senior Go Engineer</p><p>Remote, UK</p>",
			want: "Senior Go Engineer Remote, UK",
		},
		{
			name: "scripts dropped",
			in:   "<div>Apply now<script>track()</script> today</div>",
			want: "Apply now today",
		},
		{
			name: "whitespace collapsed",
			in:   "<ul><li>Go\n\n   services</li><li>Postgres</li></ul>",
			want: "Go services Postgres",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Flatten(tt.in))
		})
	}
}
