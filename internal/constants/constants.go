package constants

// DefaultPTGenURL is the public PT-Gen deployment queried when no
// endpoint is configured.
const DefaultPTGenURL = "https://api.ptgen.net"

// DefaultUserAgent identifies the library on PT-Gen requests.
const DefaultUserAgent = "posterbed/1.0"
