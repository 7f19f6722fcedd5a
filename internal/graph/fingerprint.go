package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed hashing. The version suffix
// enables future algorithm migration.
const (
	DomainNode  = "fixpoint/node/v1"
	DomainGraph = "fixpoint/graph/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// formatValue renders a float payload in the shortest round-tripping
// decimal form. Dumps serialize values as strings so the encoding is
// byte-stable across platforms and JSON implementations.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// normalizeLabel NFC-normalizes a model-level name at the
// serialization boundary so visually identical labels hash equal.
func normalizeLabel(label string) string {
	return norm.NFC.String(label)
}

// internKey computes the structural fingerprint the Builder interns
// deterministic nodes under. Operands are identified by sequence
// number: interning deduplicates within one graph, not across graphs.
func internKey(kind Kind, value float64, label string, inputs []*Node) string {
	var buf bytes.Buffer
	buf.WriteString(kind.String())
	buf.WriteByte('|')
	buf.WriteString(formatValue(value))
	buf.WriteByte('|')
	buf.WriteString(normalizeLabel(label))
	for _, in := range inputs {
		fmt.Fprintf(&buf, "|%d", in.seq)
	}
	return hashWithDomain(DomainNode, buf.Bytes())
}

// Dump serializes the graph to canonical JSON for hashing, golden
// tests, and the run store.
//
// Nodes appear in topological order and reference operands by position
// in that order, never by raw sequence number, so two separately
// constructed but structurally identical graphs dump to identical
// bytes. Keys are emitted in a fixed order by hand; this is the only
// serialization that content-addressed graph identity may use.
func (g *Graph) Dump() ([]byte, error) {
	order, pos, err := g.positions()
	if err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"nodes":[`)
	for i, n := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeNodeRecord(&buf, n, pos); err != nil {
			return nil, fmt.Errorf("dump node %s: %w", n, err)
		}
	}
	buf.WriteString(`],"roots":[`)
	for i, p := range sortedRootPositions(g.roots, pos) {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%d", p)
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

// Hash returns the content-addressed identity of the graph's current
// structure.
func (g *Graph) Hash() (string, error) {
	dump, err := g.Dump()
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainGraph, dump), nil
}

// writeNodeRecord emits one node object with keys in fixed order:
// inputs, kind, label, value. Empty fields are omitted.
func writeNodeRecord(buf *bytes.Buffer, n *Node, pos map[*Node]int) error {
	buf.WriteByte('{')
	wrote := false

	if len(n.inputs) > 0 {
		buf.WriteString(`"inputs":[`)
		for i, in := range n.inputs {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, "%d", pos[in])
		}
		buf.WriteByte(']')
		wrote = true
	}

	if wrote {
		buf.WriteByte(',')
	}
	fmt.Fprintf(buf, `"kind":%q`, n.kind.String())

	if n.label != "" {
		escaped, err := json.Marshal(normalizeLabel(n.label))
		if err != nil {
			return err
		}
		buf.WriteString(`,"label":`)
		buf.Write(escaped)
	}

	if n.kind == KindConstant || n.kind == KindObserve {
		fmt.Fprintf(buf, `,"value":%q`, formatValue(n.value))
	}

	buf.WriteByte('}')
	return nil
}
