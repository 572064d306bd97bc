// Package codec encodes disk payloads: fixed-length slot arrays stored as
// base64 strings in a disk's metadata.
package codec

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/diskmesh/diskmesh/pkg/item"
)

// StackCodec writes and reads a single stack record.
type StackCodec interface {
	WriteStack(w io.Writer, s item.Stack) error
	ReadStack(r io.Reader) (item.Stack, error)
}

// BinaryStackCodec is the default little-endian stack record layout:
//
//	int32  type (0 = empty slot, record ends here)
//	int32  count
//	uint16 quality
//	uint32 use-times float bits
//	uint16 metadata entry count, then per entry a key and a value,
//	       each a uint16 length followed by UTF-8 bytes, sorted by key
type BinaryStackCodec struct{}

// WriteStack implements StackCodec.
func (BinaryStackCodec) WriteStack(w io.Writer, s item.Stack) error {
	if s.IsEmpty() {
		return binary.Write(w, binary.LittleEndian, int32(item.EmptyType))
	}
	if s.Value.Quality < 0 || s.Value.Quality > math.MaxUint16 {
		return fmt.Errorf("quality %d: %w", s.Value.Quality, ErrRecordTooLarge)
	}
	if len(s.Value.Meta) > math.MaxUint16 {
		return fmt.Errorf("%d metadata entries: %w", len(s.Value.Meta), ErrRecordTooLarge)
	}

	head := struct {
		Type    int32
		Count   int32
		Quality uint16
		UseBits uint32
		Meta    uint16
	}{
		Type:    int32(s.Value.Type),
		Count:   int32(s.Count),
		Quality: uint16(s.Value.Quality),
		UseBits: math.Float32bits(s.Value.UseTimes),
		Meta:    uint16(len(s.Value.Meta)),
	}
	if err := binary.Write(w, binary.LittleEndian, head); err != nil {
		return err
	}

	keys := make([]string, 0, len(s.Value.Meta))
	for k := range s.Value.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeString(w, s.Value.Meta[k]); err != nil {
			return err
		}
	}
	return nil
}

// ReadStack implements StackCodec.
func (BinaryStackCodec) ReadStack(r io.Reader) (item.Stack, error) {
	var typeID int32
	if err := binary.Read(r, binary.LittleEndian, &typeID); err != nil {
		return item.Stack{}, err
	}
	if typeID == item.EmptyType {
		return item.Stack{}, nil
	}
	if typeID < 0 {
		return item.Stack{}, fmt.Errorf("negative type id %d", typeID)
	}

	var body struct {
		Count   int32
		Quality uint16
		UseBits uint32
		Meta    uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &body); err != nil {
		return item.Stack{}, err
	}

	v := item.Value{
		Type:     int(typeID),
		Quality:  int(body.Quality),
		UseTimes: math.Float32frombits(body.UseBits),
	}
	if body.Meta > 0 {
		v.Meta = make(map[string]string, body.Meta)
		for i := 0; i < int(body.Meta); i++ {
			k, err := readString(r)
			if err != nil {
				return item.Stack{}, err
			}
			val, err := readString(r)
			if err != nil {
				return item.Stack{}, err
			}
			v.Meta[k] = val
		}
	}
	return item.NewStack(v, int(body.Count)), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string of %d bytes: %w", len(s), ErrRecordTooLarge)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// PayloadCodec converts slot arrays to and from their persisted string form.
type PayloadCodec struct {
	stacks StackCodec
}

// NewPayloadCodec returns a payload codec using sc for stack records.
// A nil sc selects BinaryStackCodec.
func NewPayloadCodec(sc StackCodec) *PayloadCodec {
	if sc == nil {
		sc = BinaryStackCodec{}
	}
	return &PayloadCodec{stacks: sc}
}

// Encode serializes slots as a slot count followed by one record per slot,
// base64 encoded.
func (c *PayloadCodec) Encode(slots []item.Stack) (string, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, int32(len(slots))); err != nil {
		return "", err
	}
	for i, s := range slots {
		if err := c.stacks.WriteStack(&buf, s); err != nil {
			return "", fmt.Errorf("encode slot %d: %w", i, err)
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses an encoded payload into exactly capacity slots. At most
// capacity records are read; missing trailing slots are empty.
//
// On any failure Decode still returns capacity empty slots, together with an
// error wrapping ErrCorruptPayload.
func (c *PayloadCodec) Decode(blob string, capacity int) ([]item.Stack, error) {
	if capacity < 0 {
		capacity = 0
	}
	slots, err := c.decode(blob, capacity)
	if err != nil {
		return item.EmptySlots(capacity), fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return slots, nil
}

func (c *PayloadCodec) decode(blob string, capacity int) ([]item.Stack, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, err
	}
	r := bufio.NewReader(bytes.NewReader(raw))

	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative slot count %d", n)
	}

	slots := item.EmptySlots(capacity)
	limit := min(int(n), capacity)
	for i := 0; i < limit; i++ {
		s, err := c.stacks.ReadStack(r)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		slots[i] = s
	}
	return slots, nil
}
