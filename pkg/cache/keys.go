package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey joins kind with the hash of the JSON encoding of parts.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Keyer derives cache keys for each cached stage.
type Keyer interface {
	// GraphKey identifies the stitch graph compiled from source.
	GraphKey(source string, opts GraphKeyOpts) string

	// ResultKey identifies a relaxed result of the graph with the given hash.
	ResultKey(graphHash string, opts ResultKeyOpts) string
}

// GraphKeyOpts holds the hook settings that change a compiled graph.
type GraphKeyOpts struct {
	Leniency  string `json:"leniency"`
	TipFromFO bool   `json:"tip_from_fo"`
}

// ResultKeyOpts holds the simulation settings that change a relaxed result.
// Params is the params document, usually JSON, hashed as given.
type ResultKeyOpts struct {
	Params []byte `json:"params"`
	Steps  int    `json:"steps"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(source string, opts GraphKeyOpts) string {
	return hashKey("graph", Hash([]byte(source)), opts)
}

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return hashKey("result", graphHash, Hash(opts.Params), opts.Steps)
}
