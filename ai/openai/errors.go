package openai

import "errors"

// ErrWrongBackend is returned by NewProvider for a config that selects another backend.
var ErrWrongBackend = errors.New("openai provider requires the openai backend")
