package bot

import (
	"testing"
	"time"

	"shedmail/internal/perms"
)

func TestNextTopicIndexRotates(t *testing.T) {
	b := &Bot{}

	for want := 0; want < 3; want++ {
		index, wrapped := b.nextTopicIndex(3)
		if wrapped {
			t.Fatalf("unexpected wrap at %d", want)
		}
		if index != want {
			t.Fatalf("expected index %d, got %d", want, index)
		}
	}

	if _, wrapped := b.nextTopicIndex(3); !wrapped {
		t.Fatalf("expected wrap after exhausting topics")
	}
	if index, wrapped := b.nextTopicIndex(3); wrapped || index != 0 {
		t.Fatalf("expected restart at 0, got index=%d wrapped=%t", index, wrapped)
	}
}

func TestParseMuteDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "10m", want: 10 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "15", want: 15 * time.Minute},
		{in: "0", wantErr: true},
		{in: "-5m", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseMuteDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %s want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseActionID(t *testing.T) {
	act, ok := parseActionID("modmail:resolve:c1")
	if !ok || act.scope != "modmail" || act.kind != "resolve" || act.targetID != "c1" {
		t.Fatalf("unexpected action: %+v ok=%t", act, ok)
	}

	for _, raw := range []string{"", "modmail", "modmail:resolve", "modmail::c1", ":resolve:c1"} {
		if _, ok := parseActionID(raw); ok {
			t.Errorf("%q: expected parse failure", raw)
		}
	}

	if got := actionID("mute", "unmute", "u1"); got != "mute:unmute:u1" {
		t.Fatalf("actionID round trip: %s", got)
	}
}

func TestCommandTiers(t *testing.T) {
	adminOnly := []string{"ban", "restart", "ping"}
	for _, name := range adminOnly {
		cmd, ok := commands[name]
		if !ok {
			t.Fatalf("missing command %s", name)
		}
		if cmd.tier != perms.Administrator {
			t.Errorf("%s: expected administrator-only tier, got %b", name, cmd.tier)
		}
	}

	everyone := []string{"help", "topic", "slap"}
	for _, name := range everyone {
		cmd, ok := commands[name]
		if !ok {
			t.Fatalf("missing command %s", name)
		}
		if cmd.tier&perms.Everyone == 0 {
			t.Errorf("%s: expected everyone tier", name)
		}
	}

	staff := []string{"activity", "version", "member", "say", "warn", "warns", "mute", "bans"}
	for _, name := range staff {
		cmd, ok := commands[name]
		if !ok {
			t.Fatalf("missing command %s", name)
		}
		if cmd.tier&perms.Everyone != 0 {
			t.Errorf("%s: staff command must not admit everyone", name)
		}
	}
}
