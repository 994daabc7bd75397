package wshost

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Message types of the worker protocol.
const (
	TyInit          = "init"
	TyStartRunning  = "startRunning"
	TyStopRunning   = "stopRunning"
	TyMouseMove     = "mousemove"
	TyHover         = "hover"
	TySelect        = "select"
	TyLeftBtDown    = "leftBtDown"
	TyLeftBtUp      = "leftBtUp"
	TyBlockRender   = "blockRender"
	TyAutoAnimation = "autoAnimation"
	TyRelease       = "release"

	TyWorkerIsReady = "workerIsReady"
	TyPick          = "pick"
)

// Message is one protocol message. A canvas cannot cross the wire, so init
// carries the surface size instead. Entity ids travel as decimal strings;
// numbers are accepted too.
type Message struct {
	Ty               string  `json:"ty"`
	X                float32 `json:"x,omitempty"`
	Y                float32 `json:"y,omitempty"`
	List             []any   `json:"list,omitempty"`
	PickItem         any     `json:"pickItem,omitempty"`
	BlockTime        float64 `json:"blockTime,omitempty"`
	AutoAnimation    *bool   `json:"autoAnimation,omitempty"`
	Width            int     `json:"width,omitempty"`
	Height           int     `json:"height,omitempty"`
	DevicePixelRatio float64 `json:"devicePixelRatio,omitempty"`
}

// decode parses a message keeping numbers exact.
func decode(b []byte) (Message, error) {
	var m Message
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	err := dec.Decode(&m)
	return m, err
}

func pickMessage(ids []uint64) Message {
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = strconv.FormatUint(id, 10)
	}
	return Message{Ty: TyPick, List: list}
}
