package hostfs

// Well-known host file locations.
const (
	EtcHosts     = "/etc/hosts"
	EtcPasswd    = "/etc/passwd"
	EtcShadow    = "/etc/shadow"
	EtcGroup     = "/etc/group"
	EtcNsswitch  = "/etc/nsswitch.conf"
	EtcServices  = "/etc/services"
	EtcOSRelease = "/etc/os-release"
)
