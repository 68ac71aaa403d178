package ftp

// CommandFactory maps verbs to their CommandSpec. It mirrors the
// chaining extensibility point from spec §4.4: a deployment can
// Register additional verbs, or overwrite a built-in one, before the
// listener starts accepting connections.
type CommandFactory struct {
	specs map[string]CommandSpec
}

// NewCommandFactory builds a factory pre-loaded with every verb this
// server implements.
func NewCommandFactory() *CommandFactory {
	f := &CommandFactory{specs: make(map[string]CommandSpec)}
	for _, spec := range defaultCommandSpecs() {
		f.Register(spec)
	}
	return f
}

// Register adds or replaces a verb's dispatch metadata.
func (f *CommandFactory) Register(spec CommandSpec) {
	f.specs[spec.Verb] = spec
}

// Parse splits a received line into (verb, param).
func (f *CommandFactory) Parse(line string) (verb, param string) {
	return splitCommandLine(line)
}

// Lookup finds the spec for verb, already uppercased by Parse.
func (f *CommandFactory) Lookup(verb string) (CommandSpec, bool) {
	spec, ok := f.specs[verb]
	return spec, ok
}

func defaultCommandSpecs() []CommandSpec {
	return []CommandSpec{
		{Verb: USER, Handler: handleUSER},
		{Verb: PASS, Handler: handlePASS},

		{Verb: PWD, LoggedIn: true, Handler: handlePWD},
		{Verb: "XPWD", LoggedIn: true, Handler: handlePWD},
		{Verb: SYST, Handler: handleSYST},
		{Verb: NOOP, Handler: handleNOOP},
		{Verb: ALLO, LoggedIn: true, Handler: handleALLO},
		{Verb: "TVFS", Handler: handleTVFS},
		{Verb: FEAT, Handler: handleFEAT},
		{Verb: HELP, Handler: handleHELP},
		{Verb: STAT, LoggedIn: true, Interrupt: true, Handler: handleSTAT},
		{Verb: MDTM, LoggedIn: true, Handler: handleMDTM},
		{Verb: SIZE, LoggedIn: true, Handler: handleSIZE},

		{Verb: TYPE, LoggedIn: true, Handler: handleTYPE},
		{Verb: MODE, LoggedIn: true, Handler: handleMODE},
		{Verb: STRU, LoggedIn: true, Handler: handleSTRU},

		{Verb: PORT, LoggedIn: true, Handler: handlePORT},
		{Verb: EPRT, LoggedIn: true, Handler: handleEPRT},
		{Verb: PASV, LoggedIn: true, Handler: handlePASV},
		{Verb: EPSV, LoggedIn: true, Handler: handleEPSV},

		{Verb: LIST, LoggedIn: true, Handler: handleLIST},
		{Verb: NLST, LoggedIn: true, Handler: handleNLST},
		{Verb: MLSD, LoggedIn: true, Handler: handleMLSD},
		{Verb: MLST, LoggedIn: true, Handler: handleMLST},
		{Verb: RETR, LoggedIn: true, Handler: handleRETR},
		{Verb: STOR, LoggedIn: true, Handler: handleSTOR},
		{Verb: APPE, LoggedIn: true, Handler: handleAPPE},
		{Verb: STOU, LoggedIn: true, Handler: handleSTOU},
		{Verb: REST, LoggedIn: true, Handler: handleREST},
		{Verb: ABOR, LoggedIn: true, Interrupt: true, Handler: handleABOR},

		{Verb: CWD, LoggedIn: true, Handler: handleCWD},
		{Verb: CDUP, LoggedIn: true, Handler: handleCDUP},
		{Verb: DELE, LoggedIn: true, Handler: handleDELE},
		{Verb: MKD, LoggedIn: true, Handler: handleMKD},
		{Verb: XMKD, LoggedIn: true, Handler: handleMKD},
		{Verb: RMD, LoggedIn: true, Handler: handleRMD},
		{Verb: XRMD, LoggedIn: true, Handler: handleRMD},
		{Verb: RNFR, LoggedIn: true, Handler: handleRNFR},
		{Verb: RNTO, LoggedIn: true, Handler: handleRNTO},

		{Verb: QUIT, Interrupt: true, Handler: handleQUIT},
	}
}
