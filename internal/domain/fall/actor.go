package fall

// Actor identifies who issued a remote command.
type Actor struct {
	// Hostname is the machine the command came from.
	Hostname string
	// Username is the system user who issued it.
	Username string
}

// String renders the actor as user@host. Missing parts are left out.
func (a *Actor) String() string {
	switch {
	case a == nil || (a.Hostname == "" && a.Username == ""):
		return ""
	case a.Hostname == "":
		return a.Username
	case a.Username == "":
		return a.Hostname
	default:
		return a.Username + "@" + a.Hostname
	}
}
