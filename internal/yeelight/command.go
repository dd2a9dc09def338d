package yeelight

import (
	"encoding/json"
	"fmt"

	"github.com/cybre/yeelight-bridge/internal/errors"
)

// command is the request frame of the Yeelight LAN control protocol: a
// JSON object terminated by CRLF. Replies are matched to requests by ID.
type command struct {
	ID     int           `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

func newCommand(id int, method string, params ...interface{}) command {
	if params == nil {
		params = []interface{}{}
	}

	return command{
		ID:     id,
		Method: method,
		Params: params,
	}
}

func (c command) encode() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s command", c.Method)
	}

	return append(b, lineEnding...), nil
}

type commandError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *commandError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

type commandResult struct {
	ID     int           `json:"id"`
	Result []string      `json:"result"`
	Error  *commandError `json:"error"`
}

// notification is an unsolicited state report. The only method the
// firmware sends is "props", carrying the changed properties.
type notification struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}
