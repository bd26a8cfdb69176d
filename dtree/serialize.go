package dtree

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/discrim/keys"
)

// Sanity caps applied while deserializing untrusted bytes. Anything larger
// is treated as corruption rather than attempted as an allocation.
const (
	maxCount   = 1 << 28
	maxNameLen = 1 << 20
)

var errCorrupt = errors.New("corrupt tree payload")

// Serialize writes the tree body (entry table followed by node table) to w.
//
// Node ids are reassigned in preorder with edges visited in keys.Compare
// order, so serializing equal trees produces identical bytes regardless of
// the order they were built in.
func (t *Tree) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeUvarint(bw, uint64(len(t.entries)))
	for _, e := range t.entries {
		writeString(bw, e.Name)
		writeUvarint(bw, zigzag(int64(e.Priority)))
	}

	order, sorted := t.preorder()

	writeUvarint(bw, uint64(len(order)))
	for _, id := range order {
		n := &t.nodes[id]
		edges := sorted[id]
		writeUvarint(bw, uint64(len(edges)))
		for _, ed := range edges {
			writeKey(bw, ed.key)
			writeUvarint(bw, uint64(ed.child))
		}
		if n.entries == nil {
			if err := bw.WriteByte(0); err != nil {
				return err
			}
			continue
		}
		if err := bw.WriteByte(1); err != nil {
			return err
		}
		data, err := n.entries.ToBytes()
		if err != nil {
			return err
		}
		writeUvarint(bw, uint64(len(data)))
		if _, err := bw.Write(data); err != nil {
			return err
		}
	}

	return bw.Flush()
}

type sortedEdge struct {
	key   keys.Key
	child uint32 // preorder id
}

// preorder returns node ids in preorder (sorted-edge order) plus, per
// original node id, its edge list with children remapped to preorder ids.
func (t *Tree) preorder() ([]uint32, [][]sortedEdge) {
	remap := make([]uint32, len(t.nodes))
	order := make([]uint32, 0, len(t.nodes))
	sortedEdges := make([][]sortedEdge, len(t.nodes))

	var walk func(id uint32)
	walk = func(id uint32) {
		remap[id] = uint32(len(order))
		order = append(order, id)

		n := &t.nodes[id]
		edges := make([]sortedEdge, 0, len(n.edges))
		for k, c := range n.edges {
			edges = append(edges, sortedEdge{key: k, child: c})
		}
		sort.Slice(edges, func(i, j int) bool {
			return keys.Compare(edges[i].key, edges[j].key) < 0
		})
		sortedEdges[id] = edges

		for _, ed := range edges {
			walk(ed.child)
		}
	}
	walk(0)

	// Children were recorded with arena ids; rewrite them to preorder ids.
	for _, id := range order {
		edges := sortedEdges[id]
		for i := range edges {
			edges[i].child = remap[edges[i].child]
		}
	}

	return order, sortedEdges
}

// Deserialize reconstructs a tree written by Serialize. Malformed input
// yields an error, never a panic.
func Deserialize(r io.Reader) (*Tree, error) {
	br := bufio.NewReader(r)

	// Counts come from untrusted bytes: grow incrementally instead of
	// trusting them for one big allocation.
	entryCount, err := readCount(br)
	if err != nil {
		return nil, err
	}
	t := &Tree{
		byName: make(map[string]uint32),
	}
	for i := 0; i < entryCount; i++ {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		raw, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errCorrupt, err)
		}
		t.entries = append(t.entries, Entry{Name: name, Priority: int32(unzigzag(raw))})
		t.byName[name] = uint32(i)
	}

	nodeCount, err := readCount(br)
	if err != nil {
		return nil, err
	}
	if nodeCount == 0 {
		return nil, fmt.Errorf("%w: missing root node", errCorrupt)
	}
	for i := 0; i < nodeCount; i++ {
		var n node
		edgeCount, err := readCount(br)
		if err != nil {
			return nil, err
		}
		if edgeCount > 0 {
			n.edges = make(map[keys.Key]uint32, min(edgeCount, 1024))
			for e := 0; e < edgeCount; e++ {
				k, err := readKey(br)
				if err != nil {
					return nil, err
				}
				child, err := binary.ReadUvarint(br)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", errCorrupt, err)
				}
				if child == 0 || child >= uint64(nodeCount) {
					return nil, fmt.Errorf("%w: edge to node %d of %d", errCorrupt, child, nodeCount)
				}
				n.edges[k] = uint32(child)
			}
		}

		terminal, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errCorrupt, err)
		}
		switch terminal {
		case 0:
		case 1:
			size, err := readCount(br)
			if err != nil {
				return nil, err
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(br, data); err != nil {
				return nil, fmt.Errorf("%w: %w", errCorrupt, err)
			}
			rb := roaring.New()
			if err := rb.UnmarshalBinary(data); err != nil {
				return nil, fmt.Errorf("%w: %w", errCorrupt, err)
			}
			if !rb.IsEmpty() && uint64(rb.Maximum()) >= uint64(entryCount) {
				return nil, fmt.Errorf("%w: entry id %d of %d", errCorrupt, rb.Maximum(), entryCount)
			}
			n.entries = rb
		default:
			return nil, fmt.Errorf("%w: terminal flag %d", errCorrupt, terminal)
		}
		t.nodes = append(t.nodes, n)
	}

	return t, nil
}

func writeKey(bw *bufio.Writer, k keys.Key) {
	bw.WriteByte(byte(k.Tag))
	writeString(bw, k.Sym)
	writeUvarint(bw, uint64(k.Num))
	writeUvarint(bw, uint64(k.Arity))
}

func readKey(br *bufio.Reader) (keys.Key, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return keys.Key{}, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	if tag > byte(keys.TagProj) {
		return keys.Key{}, fmt.Errorf("%w: key tag %d", errCorrupt, tag)
	}
	sym, err := readString(br)
	if err != nil {
		return keys.Key{}, err
	}
	num, err := binary.ReadUvarint(br)
	if err != nil {
		return keys.Key{}, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	arity, err := binary.ReadUvarint(br)
	if err != nil {
		return keys.Key{}, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	return keys.Key{Tag: keys.Tag(tag), Sym: sym, Num: uint32(num), Arity: uint32(arity)}, nil
}

func writeUvarint(bw *bufio.Writer, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	bw.Write(buf[:n])
}

func writeString(bw *bufio.Writer, s string) {
	writeUvarint(bw, uint64(len(s)))
	bw.WriteString(s)
}

func readCount(br *bufio.Reader) (int, error) {
	v, err := binary.ReadUvarint(br)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	if v > maxCount {
		return 0, fmt.Errorf("%w: count %d", errCorrupt, v)
	}
	return int(v), nil
}

func readString(br *bufio.Reader) (string, error) {
	size, err := binary.ReadUvarint(br)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errCorrupt, err)
	}
	if size > maxNameLen {
		return "", fmt.Errorf("%w: string length %d", errCorrupt, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", fmt.Errorf("%w: %w", errCorrupt, err)
	}
	return string(buf), nil
}

func zigzag(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }

func unzigzag(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }
