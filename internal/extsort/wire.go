package extsort

import (
	"encoding/binary"
	"math"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// encodeItem serializes it into a self-describing byte slice: the Key
// tuple followed by the Payload (§4.12's "self-describing length-prefixed
// binary encoding", extended here with a typed Key rather than raw bytes
// since spill files must also carry dedup bookkeeping across a spill/merge
// round-trip).
func encodeItem(it Item) []byte {
	buf := make([]byte, 0, 64+len(it.Payload.Data))
	buf = appendUvarint(buf, uint64(len(it.Key)))
	for _, v := range it.Key {
		buf = append(buf, byte(v.Kind))
		switch v.Kind {
		case ValText:
			buf = appendUvarint(buf, uint64(len(v.Text)))
			buf = append(buf, v.Text...)
		case ValFloat:
			var fb [8]byte
			binary.LittleEndian.PutUint64(fb[:], floatBits(v.Float))
			buf = append(buf, fb[:]...)
		}
	}
	buf = appendUvarint(buf, uint64(len(it.Payload.Data)))
	buf = append(buf, it.Payload.Data...)
	buf = appendUvarint(buf, uint64(len(it.Payload.ID)))
	buf = append(buf, it.Payload.ID...)
	if it.Payload.Deferred {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	if d := it.Payload.Dup; d != nil {
		buf = append(buf, byte(d.Kind))
		buf = appendUvarint(buf, d.Count)
		buf = appendUvarint(buf, uint64(len(d.Ids)))
		for _, id := range d.Ids {
			buf = appendUvarint(buf, uint64(len(id)))
			buf = append(buf, id...)
		}
	} else {
		buf = append(buf, byte(DupNone))
	}
	return buf
}

// decodeItem is the inverse of encodeItem.
func decodeItem(buf []byte) (Item, error) {
	r := &byteReader{buf: buf}
	keyLen, err := r.uvarint()
	if err != nil {
		return Item{}, err
	}
	key := make(Key, keyLen)
	for i := range key {
		kind, err := r.byteVal()
		if err != nil {
			return Item{}, err
		}
		key[i].Kind = ValueKind(kind)
		switch key[i].Kind {
		case ValText:
			n, err := r.uvarint()
			if err != nil {
				return Item{}, err
			}
			key[i].Text, err = r.bytesN(int(n))
			if err != nil {
				return Item{}, err
			}
		case ValFloat:
			fb, err := r.bytesN(8)
			if err != nil {
				return Item{}, err
			}
			key[i].Float = floatFromBits(binary.LittleEndian.Uint64(fb))
		}
	}
	dataLen, err := r.uvarint()
	if err != nil {
		return Item{}, err
	}
	data, err := r.bytesN(int(dataLen))
	if err != nil {
		return Item{}, err
	}
	idLen, err := r.uvarint()
	if err != nil {
		return Item{}, err
	}
	id, err := r.bytesN(int(idLen))
	if err != nil {
		return Item{}, err
	}
	deferredByte, err := r.byteVal()
	if err != nil {
		return Item{}, err
	}
	dupKind, err := r.byteVal()
	if err != nil {
		return Item{}, err
	}
	var dup *DupInfo
	if DupKind(dupKind) != DupNone {
		count, err := r.uvarint()
		if err != nil {
			return Item{}, err
		}
		nIds, err := r.uvarint()
		if err != nil {
			return Item{}, err
		}
		ids := make([][]byte, nIds)
		for i := range ids {
			n, err := r.uvarint()
			if err != nil {
				return Item{}, err
			}
			ids[i], err = r.bytesN(int(n))
			if err != nil {
				return Item{}, err
			}
		}
		dup = &DupInfo{Kind: DupKind(dupKind), Count: count, Ids: ids}
	}
	return Item{
		Key: key,
		Payload: Payload{
			Data:     data,
			ID:       id,
			Dup:      dup,
			Deferred: deferredByte == 1,
		},
	}, nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func floatBits(f float64) uint64     { return math.Float64bits(f) }
func floatFromBits(b uint64) float64 { return math.Float64frombits(b) }

// byteReader is a minimal cursor over a decode buffer; spill records never
// span files so a plain slice cursor (rather than io.Reader) keeps decode
// allocation-free.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, errs.New(errs.IO, "corrupt spill record: bad varint")
	}
	r.pos += n
	return v, nil
}

func (r *byteReader) byteVal() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errs.New(errs.IO, "corrupt spill record: truncated")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) bytesN(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errs.New(errs.IO, "corrupt spill record: truncated")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
