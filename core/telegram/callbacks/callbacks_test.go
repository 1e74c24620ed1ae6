package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data    string
		unique  string
		payload string
	}{
		{"\ftotal_pick|0:3", "total_pick", "0:3"},
		{"\\fshop_page|1", "shop_page", "1"},
		{"\fqty_skip", "qty_skip", ""},
		{"plain", "plain", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		unique, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
		if unique != tc.unique || payload != tc.payload {
			t.Errorf("ParseCallbackData(%q) = %q, %q; want %q, %q",
				tc.data, unique, payload, tc.unique, tc.payload)
		}
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	unique, payload := ParseCallbackData(nil)
	if unique != "" || payload != "" {
		t.Errorf("nil callback = %q, %q", unique, payload)
	}
}
