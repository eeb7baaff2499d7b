package main

import (
	"bytes"

	"github.com/markschl/seqtool-sub000/internal/extsort"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/seqio"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/varstring"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

// compileKeyFields parses a comma-separated list of varstring key
// templates (sort/unique/compare's -k/--key flag) into compiled
// components, one per comma-separated field.
func compileKeyFields(raw string, reg *vars.Registry) ([]*varstring.Compiled, error) {
	lists, err := varstring.ParseList([]byte(raw), true)
	if err != nil {
		return nil, err
	}
	out := make([]*varstring.Compiled, len(lists))
	for i, segs := range lists {
		c, err := varstring.Compile(segs, reg)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// buildKey evaluates each compiled key component against the current
// record's context/table. A field that is a sole variable reference keeps
// its native cell type (text or numeric), so "-k 'num(gc)'" sorts
// numerically rather than lexicographically; any other template is always
// a text component.
func buildKey(fields []*varstring.Compiled, ctx *vars.Context, table *symtab.Table) extsort.Key {
	key := make(extsort.Key, len(fields))
	for i, f := range fields {
		if f.IsSoleVar() {
			cell := f.EvalCell(table)
			switch cell.Kind() {
			case symtab.None:
				key[i] = extsort.NoneValue()
			case symtab.Int:
				v, _ := cell.Int()
				key[i] = extsort.FloatValue(float64(v))
			case symtab.Float:
				v, _ := cell.Float()
				key[i] = extsort.FloatValue(v)
			default:
				key[i] = extsort.TextValue(vars.CellText(ctx, cell))
			}
			continue
		}
		key[i] = extsort.TextValue(f.Eval(ctx, table))
	}
	return key
}

// formatRecord renders one record's final on-disk bytes so it can be
// carried unchanged as an extsort.Payload.Data blob through the spill/
// merge path: sort/unique buffer whole formatted records, not typed
// record.Record values, since they may outlive the driver's batch.
func formatRecord(format seqio.Format, id, desc, seq, q []byte) []byte {
	var buf bytes.Buffer
	header := joinHeader(id, desc)
	if format == seqio.FormatFastq {
		w := seqio.NewFastqWriter(&buf, qual.Sanger, qual.Sanger)
		w.WriteRecord(header, seq, q)
	} else {
		w := seqio.NewFastaWriter(&buf, 0)
		w.WriteRecord(header, seq)
	}
	return buf.Bytes()
}
