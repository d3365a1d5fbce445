// Package persist gives synthesis results a compact on-disk form: a
// plain-kinds struct with hand-written MarshalBinary/UnmarshalBinary
// methods built on github.com/dekarrin/rezi's primitive codecs, passed to
// rezi's EncBinary/DecBinary. It backs the CLI's --out flag, not runtime
// state -- no synthesis result is ever read back into a running synthesis.
package persist

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/dekarrin/rezi"

	"github.com/corvidlab/psmsynth/internal/psm"
	"github.com/corvidlab/psmsynth/internal/psmerr"
)

// ResultDTO is the rezi-encodable shape of a psm.Result. Exact rationals
// are carried as their RatString() text form, which MarshalBinary writes
// with rezi's string codec; math/big.Rat's unexported internal
// representation is never encoded.
type ResultDTO struct {
	States         []int64
	PriorityLevels []int
	InvariantVars  map[int64][]string
	InvariantAlpha map[int64]map[string]string
	InvariantBeta  map[int64]string
	PSMVars        map[int64][][]string
	PSMAlpha       map[int64][]map[string]string
	PSMBeta        map[int64][]string
}

// ToDTO flattens a synthesis Result into its rezi-encodable form.
func ToDTO(res *psm.Result) ResultDTO {
	dto := ResultDTO{
		PriorityLevels: append([]int(nil), res.PriorityLevels...),
		InvariantVars:  map[int64][]string{},
		InvariantAlpha: map[int64]map[string]string{},
		InvariantBeta:  map[int64]string{},
		PSMVars:        map[int64][][]string{},
		PSMAlpha:       map[int64][]map[string]string{},
		PSMBeta:        map[int64][]string{},
	}
	for q := range res.Invariant {
		dto.States = append(dto.States, q)
	}
	sort.Slice(dto.States, func(i, j int) bool { return dto.States[i] < dto.States[j] })
	for _, q := range dto.States {
		inv := res.Invariant[q]
		dto.InvariantVars[q] = append([]string(nil), inv.Vars...)
		dto.InvariantAlpha[q] = ratMapToStrings(inv.Alpha)
		dto.InvariantBeta[q] = inv.Beta.RatString()
	}
	for q, funcs := range res.PSM {
		var vars [][]string
		var alpha []map[string]string
		var beta []string
		for _, f := range funcs {
			vars = append(vars, append([]string(nil), f.Vars...))
			alpha = append(alpha, ratMapToStrings(f.Alpha))
			beta = append(beta, f.Beta.RatString())
		}
		dto.PSMVars[q] = vars
		dto.PSMAlpha[q] = alpha
		dto.PSMBeta[q] = beta
	}
	return dto
}

// ToResult reconstitutes a Result from its decoded DTO form.
func (dto ResultDTO) ToResult() (*psm.Result, error) {
	res := &psm.Result{
		Invariant:      map[int64]psm.Invariant{},
		PSM:            map[int64][]psm.LinearFunc{},
		PriorityLevels: append([]int(nil), dto.PriorityLevels...),
	}
	for _, q := range dto.States {
		alpha, err := stringsToRatMap(dto.InvariantAlpha[q])
		if err != nil {
			return nil, err
		}
		beta, ok := new(big.Rat).SetString(dto.InvariantBeta[q])
		if !ok {
			return nil, psmerr.New(psmerr.ModelDecode, "invariant beta for state %d is not a valid rational: %q", q, dto.InvariantBeta[q])
		}
		res.Invariant[q] = psm.Invariant{Vars: dto.InvariantVars[q], Alpha: alpha, Beta: beta}

		var funcs []psm.LinearFunc
		for i, vars := range dto.PSMVars[q] {
			a, err := stringsToRatMap(dto.PSMAlpha[q][i])
			if err != nil {
				return nil, err
			}
			b, ok := new(big.Rat).SetString(dto.PSMBeta[q][i])
			if !ok {
				return nil, psmerr.New(psmerr.ModelDecode, "PSM component %d beta for state %d is not a valid rational: %q", i, q, dto.PSMBeta[q][i])
			}
			funcs = append(funcs, psm.LinearFunc{Vars: vars, Alpha: a, Beta: b})
		}
		res.PSM[q] = funcs
	}
	return res, nil
}

func ratMapToStrings(m map[string]*big.Rat) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.RatString()
	}
	return out
}

func stringsToRatMap(m map[string]string) (map[string]*big.Rat, error) {
	out := make(map[string]*big.Rat, len(m))
	for k, v := range m {
		r, ok := new(big.Rat).SetString(v)
		if !ok {
			return nil, psmerr.New(psmerr.ModelDecode, "coefficient of %q is not a valid rational: %q", k, v)
		}
		out[k] = r
	}
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler using rezi's primitive
// int/string codecs, since rezi's EncBinary/DecBinary require the target
// type to implement the interface itself rather than reflecting over it.
func (dto *ResultDTO) MarshalBinary() ([]byte, error) {
	var buf []byte
	buf = append(buf, rezi.EncInt(len(dto.States))...)
	for _, q := range dto.States {
		buf = append(buf, rezi.EncInt(int(q))...)
	}
	buf = append(buf, rezi.EncInt(len(dto.PriorityLevels))...)
	for _, p := range dto.PriorityLevels {
		buf = append(buf, rezi.EncInt(p)...)
	}
	for _, q := range dto.States {
		buf = append(buf, encStringSlice(dto.InvariantVars[q])...)
		buf = append(buf, encStringMap(dto.InvariantAlpha[q])...)
		buf = append(buf, rezi.EncString(dto.InvariantBeta[q])...)

		vars := dto.PSMVars[q]
		buf = append(buf, rezi.EncInt(len(vars))...)
		for _, v := range vars {
			buf = append(buf, encStringSlice(v)...)
		}
		alpha := dto.PSMAlpha[q]
		buf = append(buf, rezi.EncInt(len(alpha))...)
		for _, a := range alpha {
			buf = append(buf, encStringMap(a)...)
		}
		buf = append(buf, encStringSlice(dto.PSMBeta[q])...)
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, reversing
// MarshalBinary.
func (dto *ResultDTO) UnmarshalBinary(data []byte) error {
	*dto = ResultDTO{
		InvariantVars:  map[int64][]string{},
		InvariantAlpha: map[int64]map[string]string{},
		InvariantBeta:  map[int64]string{},
		PSMVars:        map[int64][][]string{},
		PSMAlpha:       map[int64][]map[string]string{},
		PSMBeta:        map[int64][]string{},
	}

	stateCount, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("decoding state count: %w", err)
	}
	data = data[n:]
	dto.States = make([]int64, stateCount)
	for i := range dto.States {
		q, n, err := rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("decoding state %d: %w", i, err)
		}
		data = data[n:]
		dto.States[i] = int64(q)
	}

	priorityCount, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("decoding priority level count: %w", err)
	}
	data = data[n:]
	dto.PriorityLevels = make([]int, priorityCount)
	for i := range dto.PriorityLevels {
		p, n, err := rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("decoding priority level %d: %w", i, err)
		}
		data = data[n:]
		dto.PriorityLevels[i] = p
	}

	for _, q := range dto.States {
		vars, n, err := decStringSlice(data)
		if err != nil {
			return fmt.Errorf("decoding invariant vars for state %d: %w", q, err)
		}
		data = data[n:]
		dto.InvariantVars[q] = vars

		alpha, n, err := decStringMap(data)
		if err != nil {
			return fmt.Errorf("decoding invariant alpha for state %d: %w", q, err)
		}
		data = data[n:]
		dto.InvariantAlpha[q] = alpha

		beta, n, err := rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("decoding invariant beta for state %d: %w", q, err)
		}
		data = data[n:]
		dto.InvariantBeta[q] = beta

		varsCount, n, err := rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("decoding PSM component count for state %d: %w", q, err)
		}
		data = data[n:]
		psmVars := make([][]string, varsCount)
		for i := range psmVars {
			v, n, err := decStringSlice(data)
			if err != nil {
				return fmt.Errorf("decoding PSM component %d vars for state %d: %w", i, q, err)
			}
			data = data[n:]
			psmVars[i] = v
		}
		dto.PSMVars[q] = psmVars

		alphaCount, n, err := rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("decoding PSM alpha count for state %d: %w", q, err)
		}
		data = data[n:]
		psmAlpha := make([]map[string]string, alphaCount)
		for i := range psmAlpha {
			a, n, err := decStringMap(data)
			if err != nil {
				return fmt.Errorf("decoding PSM component %d alpha for state %d: %w", i, q, err)
			}
			data = data[n:]
			psmAlpha[i] = a
		}
		dto.PSMAlpha[q] = psmAlpha

		psmBeta, n, err := decStringSlice(data)
		if err != nil {
			return fmt.Errorf("decoding PSM beta for state %d: %w", q, err)
		}
		data = data[n:]
		dto.PSMBeta[q] = psmBeta
	}

	return nil
}

func encStringSlice(sl []string) []byte {
	buf := rezi.EncInt(len(sl))
	for _, s := range sl {
		buf = append(buf, rezi.EncString(s)...)
	}
	return buf
}

func decStringSlice(data []byte) ([]string, int, error) {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, err
	}
	total := n
	data = data[n:]
	sl := make([]string, count)
	for i := range sl {
		s, n, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[n:]
		total += n
		sl[i] = s
	}
	return sl, total, nil
}

func encStringMap(m map[string]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf := rezi.EncInt(len(keys))
	for _, k := range keys {
		buf = append(buf, rezi.EncString(k)...)
		buf = append(buf, rezi.EncString(m[k])...)
	}
	return buf
}

func decStringMap(data []byte) (map[string]string, int, error) {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, err
	}
	total := n
	data = data[n:]
	m := make(map[string]string, count)
	for i := 0; i < count; i++ {
		k, n, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[n:]
		total += n
		v, n, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, err
		}
		data = data[n:]
		total += n
		m[k] = v
	}
	return m, total, nil
}

// Encode serializes a Result to rezi's binary format.
func Encode(res *psm.Result) []byte {
	dto := ToDTO(res)
	return rezi.EncBinary(&dto)
}

// Decode reverses Encode.
func Decode(data []byte) (*psm.Result, error) {
	var dto ResultDTO
	n, err := rezi.DecBinary(data, &dto)
	if err != nil {
		return nil, fmt.Errorf("rezi decode: %w", err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("rezi decode: consumed %d/%d bytes", n, len(data))
	}
	return dto.ToResult()
}
