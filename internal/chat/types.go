package chat

// Message is one prior conversation turn. Synthetic traffic never carries any.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Payload is the JSON body of a chat turn.
type Payload struct {
	Query          string    `json:"query"`
	History        []Message `json:"history"`
	Persona        string    `json:"persona"`
	Filename       string    `json:"filename"`
	ExpressiveMode bool      `json:"expressiveMode"`
	ForceError     bool      `json:"forceError"`
}

// Response describes a completed chat turn. The body itself is discarded.
type Response struct {
	StatusCode int
	Bytes      int64
	Chunks     int
}

// Descriptor is what GET on the chat endpoint reports about itself.
type Descriptor struct {
	Status         string   `json:"status"`
	Endpoint       string   `json:"endpoint"`
	Method         string   `json:"method"`
	RequiredFields []string `json:"requiredFields"`
	OptionalFields []string `json:"optionalFields"`
}
