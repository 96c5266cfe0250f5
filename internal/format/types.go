package format

type HostEntry struct {
	Address  string   `json:"address"`
	Hostname string   `json:"hostname"`
	Aliases  []string `json:"aliases"`
	Comment  string   `json:"comment,omitempty"`
}

type PasswdEntry struct {
	Name   string `json:"username"`
	Passwd string `json:"password"`
	UID    int    `json:"uid"`
	GID    int    `json:"gid"`
	Gecos  string `json:"gecos"`
	Home   string `json:"home"`
	Shell  string `json:"shell"`
}

// ShadowEntry fields are days since the epoch or day counts. Inactive and
// Expire are empty on disk when nil.
type ShadowEntry struct {
	Name       string `json:"username"`
	Hash       string `json:"password"`
	LastChange int    `json:"changed"`
	Min        int    `json:"min"`
	Max        int    `json:"max"`
	Warn       int    `json:"warn"`
	Inactive   *int   `json:"inactive,omitempty"`
	Expire     *int   `json:"expire,omitempty"`
	Reserved   string `json:"reserved,omitempty"`
}

type GroupEntry struct {
	Name    string   `json:"name"`
	Passwd  string   `json:"password"`
	GID     int      `json:"gid"`
	Members []string `json:"members"`
}

type NssAction struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

type NssProvider struct {
	Provider string     `json:"provider"`
	Action   *NssAction `json:"action,omitempty"`
}

type NssEntry struct {
	Database  string        `json:"database"`
	Providers []NssProvider `json:"providers"`
}

type ServiceEntry struct {
	Service  string   `json:"service"`
	Port     int      `json:"port"`
	Protocol string   `json:"protocol"`
	Aliases  []string `json:"aliases"`
	Comment  string   `json:"comment,omitempty"`
}
