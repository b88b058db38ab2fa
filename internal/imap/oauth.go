package imap

import (
	"fmt"

	"github.com/emersion/go-sasl"
)

// xoauth2 implements sasl.Client for the Microsoft 365 / Gmail XOAUTH2
// mechanism, grounded on original_source's msft module using a bearer
// access token in place of a mailbox password.
type xoauth2 struct {
	username string
	token    string
}

func (a xoauth2) Start() (mech string, ir []byte, err error) {
	ir = []byte(fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", a.username, a.token))
	return "XOAUTH2", ir, nil
}

func (a xoauth2) Next(challenge []byte) ([]byte, error) {
	return nil, fmt.Errorf("imap: unexpected XOAUTH2 challenge: %s", challenge)
}

var _ sasl.Client = xoauth2{}
