package configdb

import "testing"

func TestEntryKeyFromChannel(t *testing.T) {
	tests := []struct {
		channel string
		table   string
		wantKey string
		wantOK  bool
	}{
		{"__keyspace@4__:BGP_ALLOWED_PREFIXES|DEPLOYMENT_ID|5", "BGP_ALLOWED_PREFIXES", "DEPLOYMENT_ID|5", true},
		{"__keyspace@4__:BGP_ALLOWED_PREFIXES|DEPLOYMENT_ID|7|65000:1", "BGP_ALLOWED_PREFIXES", "DEPLOYMENT_ID|7|65000:1", true},
		{"__keyspace@4__:OTHER_TABLE|x", "BGP_ALLOWED_PREFIXES", "", false},
		{"not-a-keyspace-channel", "BGP_ALLOWED_PREFIXES", "", false},
	}
	for _, tt := range tests {
		_, key, ok := entryKeyFromChannel(tt.channel, tt.table)
		if ok != tt.wantOK {
			t.Errorf("entryKeyFromChannel(%q, %q) ok = %v, want %v", tt.channel, tt.table, ok, tt.wantOK)
			continue
		}
		if ok && key != tt.wantKey {
			t.Errorf("entryKeyFromChannel(%q, %q) key = %q, want %q", tt.channel, tt.table, key, tt.wantKey)
		}
	}
}

func TestNewClientConfiguresCorrectDB(t *testing.T) {
	c := NewClient("localhost:6379", "BGP_ALLOWED_PREFIXES")
	if c.table != "BGP_ALLOWED_PREFIXES" {
		t.Errorf("table = %q, want BGP_ALLOWED_PREFIXES", c.table)
	}
	if c.client.Options().DB != configDBIndex {
		t.Errorf("DB = %d, want %d", c.client.Options().DB, configDBIndex)
	}
}
