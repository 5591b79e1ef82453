// scl-inspect decodes and validates ledger structures supplied as hex. It
// reads one JSON request from stdin and writes one JSON response, so test
// harnesses in other languages can drive the validation core directly.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"sclchain.dev/core/consensus"
	"sclchain.dev/core/crypto"
	"sclchain.dev/core/utxostore"
)

type UtxoJSON struct {
	OutputHex   string `json:"output_hex"`
	MinedHeight uint64 `json:"mined_height"`
}

type Request struct {
	Op        string     `json:"op"`
	TxHex     string     `json:"tx_hex,omitempty"`
	BlockHex  string     `json:"block_hex,omitempty"`
	HeaderHex string     `json:"header_hex,omitempty"`
	Height    uint64     `json:"height,omitempty"`
	Reward    uint64     `json:"reward,omitempty"`
	Utxos     []UtxoJSON `json:"utxos,omitempty"`
}

type Response struct {
	Ok         bool     `json:"ok"`
	Err        string   `json:"err,omitempty"`
	Status     string   `json:"status,omitempty"`
	Fees       uint64   `json:"fees,omitempty"`
	Weight     uint64   `json:"weight,omitempty"`
	Inputs     int      `json:"inputs,omitempty"`
	Outputs    int      `json:"outputs,omitempty"`
	Kernels    []string `json:"kernels,omitempty"`
	HeaderHash string   `json:"header_hash,omitempty"`
	Script     string   `json:"script,omitempty"`
}

func handle(req Request) Response {
	p := consensus.DefaultParams()

	switch req.Op {
	case "parse_tx":
		_, resp := parseTx(req.TxHex, p)
		return resp

	case "validate_tx":
		tx, resp := parseTx(req.TxHex, p)
		if tx == nil {
			return resp
		}
		utxos, err := loadUtxos(req.Utxos, p)
		if err != nil {
			return Response{Ok: false, Err: err.Error()}
		}
		v := consensus.NewTxValidator(p, zerolog.Nop())
		verdict := v.Validate(tx, consensus.ValidationContext{
			Height:      req.Height,
			Utxos:       utxos,
			RangeProofs: passProofs{},
		})
		resp.Status = verdict.Status.String()
		if !verdict.Valid() {
			resp.Err = string(verdict.Code)
		}
		return resp

	case "parse_block", "validate_block":
		raw, err := hex.DecodeString(req.BlockHex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		b, err := consensus.ParseBlock(raw, p)
		if err != nil {
			return errResp(err)
		}
		hash := b.Header.Hash()
		resp := Response{
			Ok:         true,
			Weight:     consensus.BodyWeight(&b.Body, p),
			Inputs:     len(b.Body.Inputs),
			Outputs:    len(b.Body.Outputs),
			HeaderHash: hex.EncodeToString(hash[:]),
		}
		for i := range b.Body.Kernels {
			kh := b.Body.Kernels[i].Hash()
			resp.Kernels = append(resp.Kernels, hex.EncodeToString(kh[:]))
		}
		if req.Op == "parse_block" {
			return resp
		}
		utxos, err := loadUtxos(req.Utxos, p)
		if err != nil {
			return Response{Ok: false, Err: err.Error()}
		}
		v := consensus.NewBlockValidator(p, zerolog.Nop())
		verdict := v.Validate(b, consensus.BlockContext{
			Utxos:       utxos,
			Kernels:     utxos,
			RangeProofs: passProofs{},
			Reward:      req.Reward,
		})
		resp.Status = verdict.Status.String()
		if !verdict.Valid() {
			resp.Err = string(verdict.Code)
		}
		return resp

	case "parse_header":
		raw, err := hex.DecodeString(req.HeaderHex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		h, err := consensus.ParseBlockHeader(raw)
		if err != nil {
			return errResp(err)
		}
		hash := h.Hash()
		return Response{Ok: true, HeaderHash: hex.EncodeToString(hash[:])}

	default:
		return Response{Ok: false, Err: "unknown op"}
	}
}

// parseTx decodes a transaction and summarizes it. A nil transaction means
// the response already carries the error.
func parseTx(txHex string, p consensus.Params) (*consensus.Transaction, Response) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, Response{Ok: false, Err: "bad hex"}
	}
	tx, err := consensus.ParseTransaction(raw, p)
	if err != nil {
		return nil, errResp(err)
	}
	fees, err := tx.Fees()
	if err != nil {
		return nil, errResp(err)
	}
	resp := Response{
		Ok:      true,
		Fees:    fees,
		Weight:  consensus.BodyWeight(&tx.Body, p),
		Inputs:  len(tx.Body.Inputs),
		Outputs: len(tx.Body.Outputs),
	}
	for i := range tx.Body.Kernels {
		kh := tx.Body.Kernels[i].Hash()
		resp.Kernels = append(resp.Kernels, hex.EncodeToString(kh[:]))
	}
	if len(tx.Body.Inputs) > 0 {
		resp.Script = tx.Body.Inputs[0].Script.String()
	}
	return tx, resp
}

func loadUtxos(entries []UtxoJSON, p consensus.Params) (*utxostore.MemStore, error) {
	s := utxostore.NewMemStore()
	for i, e := range entries {
		raw, err := hex.DecodeString(e.OutputHex)
		if err != nil {
			return nil, fmt.Errorf("utxo %d: bad hex", i)
		}
		out, err := consensus.ParseOutput(raw, p)
		if err != nil {
			return nil, fmt.Errorf("utxo %d: %w", i, err)
		}
		s.AddOutput(out, e.MinedHeight)
	}
	return s, nil
}

// passProofs accepts every range proof; the inspect tool carries no proof
// system and callers exercise proof failures elsewhere.
type passProofs struct{}

func (passProofs) VerifyRangeProof(crypto.Commitment, []byte) bool { return true }

func errResp(err error) Response {
	if te, ok := err.(*consensus.TxError); ok {
		return Response{Ok: false, Err: string(te.Code)}
	}
	return Response{Ok: false, Err: err.Error()}
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}
	writeResp(os.Stdout, handle(req))
}
