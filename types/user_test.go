package types

import "testing"

func TestLogin_Validate(t *testing.T) {
	tt := []struct {
		name    string
		in      Login
		wantErr bool
	}{
		{name: "simple", in: Login{Username: "agent007"}},
		{name: "trims_spaces", in: Login{Username: "  agent007  "}},
		{name: "dots_and_dashes", in: Login{Username: "immo.agent-1_tirana"}},
		{name: "single_char", in: Login{Username: "a"}},
		{name: "empty", in: Login{}, wantErr: true},
		{name: "only_spaces", in: Login{Username: "   "}, wantErr: true},
		{name: "leading_dot", in: Login{Username: ".agent"}, wantErr: true},
		{name: "too_long", in: Login{Username: "abcdefghijklmnopqrstuv"}, wantErr: true},
		{name: "illegal_chars", in: Login{Username: "agent 007"}, wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("got error %v, want error: %v", err, tc.wantErr)
			}
		})
	}
}
