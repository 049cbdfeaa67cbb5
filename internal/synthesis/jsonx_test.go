package synthesis

import "testing"

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			in:   `{"script":"내용"}`,
			want: `{"script":"내용"}`,
			ok:   true,
		},
		{
			name: "wrapped in prose",
			in:   "물론입니다! 요청하신 결과입니다:\n{\"script\":\"내용\"}\n도움이 되었기를 바랍니다.",
			want: `{"script":"내용"}`,
			ok:   true,
		},
		{
			name: "code fence",
			in:   "```json\n{\"script\":\"내용\"}\n```",
			want: `{"script":"내용"}`,
			ok:   true,
		},
		{
			name: "nested objects",
			in:   `{"a":{"b":{"c":1}},"d":2}`,
			want: `{"a":{"b":{"c":1}},"d":2}`,
			ok:   true,
		},
		{
			name: "braces inside strings",
			in:   `{"script":"중괄호 } 포함 { 문자열","note":"ok"}`,
			want: `{"script":"중괄호 } 포함 { 문자열","note":"ok"}`,
			ok:   true,
		},
		{
			name: "escaped quote inside string",
			in:   `{"script":"이스케이프 \" 처리"}`,
			want: `{"script":"이스케이프 \" 처리"}`,
			ok:   true,
		},
		{
			name: "no object",
			in:   "JSON 없이 평문만 있습니다.",
			ok:   false,
		},
		{
			name: "unbalanced",
			in:   `{"script":"끝나지 않음"`,
			ok:   false,
		},
		{
			name: "first of two objects",
			in:   `{"a":1} {"b":2}`,
			want: `{"a":1}`,
			ok:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := extractJSONObject(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
