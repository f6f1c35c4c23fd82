package parser

import (
	"encoding/json"
	"testing"
)

func TestMarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "empty document",
			source: "",
			want:   `{"t":"RootNode","subNodes":[]}`,
		},
		{
			name:   "text and newline",
			source: "a\nb",
			want: `{"t":"RootNode","subNodes":[` +
				`{"t":"TextNode","content":"a","sourceStartLine":1,"sourceStartCol":1},` +
				`{"t":"TextNode","content":"\n","sourceStartLine":1,"sourceStartCol":2},` +
				`{"t":"TextNode","content":"b","sourceStartLine":2,"sourceStartCol":1}]}`,
		},
		{
			name:   "command without square list",
			source: "@c{}",
			want: `{"t":"RootNode","subNodes":[` +
				`{"t":"CommandNode","commandName":"c","squareArgs":null,"curlyArgs":[[]]}]}`,
		},
		{
			name:   "square entries",
			source: `@c[1.5, x, true, "s", k=@d;];`,
			want: `{"t":"RootNode","subNodes":[` +
				`{"t":"CommandNode","commandName":"c","squareArgs":[` +
				`{"t":"Val","c":{"t":"Num","c":1.5}},` +
				`{"t":"Val","c":{"t":"Ident","c":"x"}},` +
				`{"t":"Val","c":{"t":"Bool","c":true}},` +
				`{"t":"Val","c":{"t":"QuotedStr","c":"s"}},` +
				`{"t":"KeyVal","c":[{"t":"Ident","c":"k"},` +
				`{"t":"AstNode","c":{"t":"CommandNode","commandName":"d","squareArgs":null,"curlyArgs":[]}}]}` +
				`],"curlyArgs":[]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.source)

			got, err := json.Marshal(root)
			if err != nil {
				t.Fatalf("unexpected marshal error: %v", err)
			}

			if string(got) != tt.want {
				t.Errorf("JSON mismatch\n want = %s\n got  = %s", tt.want, got)
			}
		})
	}
}

func TestMarshalJSON_InvalidEntry(t *testing.T) {
	entry := SquareEntry{Kind: EntryAstNode}

	if _, err := json.Marshal(entry); err == nil {
		t.Error("Expected an error for an AstNode entry without node")
	}
}

func TestString(t *testing.T) {
	root := mustParse(t, `@c[k="v"]{x}`)

	got := root.SubNodes[0].String()
	want := `{"Kind": "CommandNode", "Range": ` + root.SubNodes[0].Range().String() +
		`, "CommandName": "c", "SquareArgs": [k="v"], "CurlyArgs": [[` +
		root.SubNodes[0].(*CommandNode).CurlyArgs[0][0].String() + `]]}`

	if got != want {
		t.Errorf("String mismatch\n want = %s\n got  = %s", want, got)
	}
}
