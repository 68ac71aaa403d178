package ftp

import "testing"

func TestSplitCommandLine(t *testing.T) {
	cases := []struct {
		line      string
		wantVerb  string
		wantParam string
	}{
		{"USER anonymous\r\n", "USER", "anonymous"},
		{"pwd\r\n", "PWD", ""},
		{"retr /a/b.txt\r\n", "RETR", "/a/b.txt"},
		{"TYPE I\r\n", "TYPE", "I"},
		{"NOOP\n", "NOOP", ""},
	}
	for _, c := range cases {
		verb, param := splitCommandLine(c.line)
		if verb != c.wantVerb || param != c.wantParam {
			t.Errorf("splitCommandLine(%q) = (%q, %q), want (%q, %q)",
				c.line, verb, param, c.wantVerb, c.wantParam)
		}
	}
}

func TestCommandFactoryLookupKnownVerbs(t *testing.T) {
	f := NewCommandFactory()
	for _, verb := range []string{"USER", "PASS", "PASV", "EPSV", "PORT", "EPRT",
		"RETR", "STOR", "STOU", "APPE", "REST", "ABOR", "LIST", "NLST", "MLSD",
		"MLST", "CWD", "CDUP", "DELE", "MKD", "RMD", "RNFR", "RNTO", "QUIT"} {
		if _, ok := f.Lookup(verb); !ok {
			t.Errorf("Lookup(%q) not found in default command set", verb)
		}
	}
}

func TestCommandFactoryLookupUnknownVerb(t *testing.T) {
	f := NewCommandFactory()
	if _, ok := f.Lookup("FOO"); ok {
		t.Error("Lookup(\"FOO\") found a spec, want none")
	}
}

func TestCommandFactoryRegisterOverride(t *testing.T) {
	f := NewCommandFactory()
	called := false
	f.Register(CommandSpec{Verb: "NOOP", Handler: func(cc *ControlConnection, param string) HandlerResult {
		called = true
		return simpleResult(NewReply(StatusCommandOK, "overridden"))
	}})
	spec, ok := f.Lookup("NOOP")
	if !ok {
		t.Fatal("Lookup(\"NOOP\") not found after Register")
	}
	spec.Handler(nil, "")
	if !called {
		t.Error("registered override handler was not wired in")
	}
}

func TestAbortAndQuitAreInterruptible(t *testing.T) {
	f := NewCommandFactory()
	for _, verb := range []string{"ABOR", "QUIT"} {
		spec, ok := f.Lookup(verb)
		if !ok {
			t.Fatalf("Lookup(%q) not found", verb)
		}
		if !spec.Interrupt {
			t.Errorf("%s.Interrupt = false, want true", verb)
		}
	}
}
