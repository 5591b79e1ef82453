package script

import (
	"crypto/sha256"
	"math"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"sclchain.dev/core/crypto"
)

// Context carries the only external state a script may read: the chain
// height at which it is being evaluated.
type Context struct {
	BlockHeight uint64
}

// condFrame tracks one IfThen nesting level during execution.
type condFrame struct {
	// value is true while the branch selected by the condition executes.
	value    bool
	seenElse bool
}

// Execute runs the script against the given input data and returns the
// single residual stack item. It fails if execution aborts, if the final
// stack does not hold exactly one item, or if any conditional is left open.
// The input stack is not modified.
func (s Script) Execute(inputs *Stack, ctx Context) (Item, error) {
	stack := inputs.clone()
	var frames []condFrame

	for _, op := range s.ops {
		exec := true
		for _, f := range frames {
			if !f.value {
				exec = false
				break
			}
		}

		switch op.(type) {
		case IfThen:
			if !exec {
				frames = append(frames, condFrame{value: false})
				continue
			}
			item, err := stack.Pop()
			if err != nil {
				return nil, err
			}
			n, ok := item.(Number)
			if !ok || (n != 0 && n != 1) {
				return nil, scripterr(SCRIPT_ERR_INVALID_CONDITION, "IfThen condition must be number 0 or 1")
			}
			frames = append(frames, condFrame{value: n == 1})
		case Else:
			if len(frames) == 0 {
				return nil, scripterr(SCRIPT_ERR_UNBALANCED_CONDITIONAL, "Else without IfThen")
			}
			f := &frames[len(frames)-1]
			if f.seenElse {
				return nil, scripterr(SCRIPT_ERR_UNBALANCED_CONDITIONAL, "duplicate Else")
			}
			f.seenElse = true
			f.value = !f.value
		case EndIf:
			if len(frames) == 0 {
				return nil, scripterr(SCRIPT_ERR_UNBALANCED_CONDITIONAL, "EndIf without IfThen")
			}
			frames = frames[:len(frames)-1]
		default:
			if !exec {
				continue
			}
			if err := runOp(stack, op, ctx); err != nil {
				return nil, err
			}
		}
	}

	if len(frames) > 0 {
		return nil, scripterr(SCRIPT_ERR_UNBALANCED_CONDITIONAL, "IfThen without EndIf")
	}
	if stack.Size() != 1 {
		return nil, scripterr(SCRIPT_ERR_RESIDUAL_STACK, "script left %d items, want exactly 1", stack.Size())
	}
	return stack.Pop()
}

// ExecuteForPubKey runs the script and requires the residual item to be a
// public key. This is the spending path: the returned key is the one the
// input's script signature must verify against.
func (s Script) ExecuteForPubKey(inputs *Stack, ctx Context) (crypto.Point, error) {
	item, err := s.Execute(inputs, ctx)
	if err != nil {
		return crypto.Point{}, err
	}
	pk, ok := item.(PublicKey)
	if !ok {
		return crypto.Point{}, scripterr(SCRIPT_ERR_NOT_A_PUBLIC_KEY, "residual stack item is not a public key")
	}
	return crypto.Point(pk), nil
}

func pushBool(stack *Stack, v bool) error {
	if v {
		return stack.Push(Number(1))
	}
	return stack.Push(Number(0))
}

// popHeight pops the target height for the height-comparison ops, which
// report a non-Number operand with their own code.
func popHeight(stack *Stack) (Number, error) {
	item, err := stack.Pop()
	if err != nil {
		return 0, err
	}
	n, ok := item.(Number)
	if !ok {
		return 0, scripterr(SCRIPT_ERR_STACK_HEIGHT_NOT_NUMBER, "height comparison expects a number")
	}
	return n, nil
}

// blocksUntil returns max(0, target - current).
func blocksUntil(target, current uint64) (Number, error) {
	if target <= current {
		return 0, nil
	}
	d := target - current
	if d > math.MaxInt64 {
		return 0, scripterr(SCRIPT_ERR_VALUE_EXCEEDS_BOUNDS, "height difference overflows")
	}
	return Number(d), nil
}

func runOp(stack *Stack, op Op, ctx Context) error {
	switch o := op.(type) {
	case Return:
		return scripterr(SCRIPT_ERR_RETURN, "Return opcode reached")

	case Nop:
		return nil

	case Drop:
		_, err := stack.Pop()
		return err

	case Dup:
		item, err := stack.Peek()
		if err != nil {
			return err
		}
		return stack.Push(item)

	case RevRot:
		z, err := stack.Pop()
		if err != nil {
			return err
		}
		y, err := stack.Pop()
		if err != nil {
			return err
		}
		x, err := stack.Pop()
		if err != nil {
			return err
		}
		// [x y z] becomes [z x y]
		if err := stack.Push(z); err != nil {
			return err
		}
		if err := stack.Push(x); err != nil {
			return err
		}
		return stack.Push(y)

	case PushZero:
		return stack.Push(Number(0))

	case PushOne:
		return stack.Push(Number(1))

	case PushInt:
		return stack.Push(Number(o.Value))

	case PushHash:
		return stack.Push(Hash(o.Hash))

	case PushPubKey:
		return stack.Push(PublicKey(o.Key))

	case Equal, EqualVerify:
		b, err := stack.Pop()
		if err != nil {
			return err
		}
		a, err := stack.Pop()
		if err != nil {
			return err
		}
		if _, verify := op.(EqualVerify); verify {
			if a != b {
				return scripterr(SCRIPT_ERR_VERIFY_FAILED, "EqualVerify mismatch")
			}
			return nil
		}
		return pushBool(stack, a == b)

	case GeZero:
		n, err := stack.popNumber()
		if err != nil {
			return err
		}
		return pushBool(stack, n >= 0)

	case GtZero:
		n, err := stack.popNumber()
		if err != nil {
			return err
		}
		return pushBool(stack, n > 0)

	case LeZero:
		n, err := stack.popNumber()
		if err != nil {
			return err
		}
		return pushBool(stack, n <= 0)

	case LtZero:
		n, err := stack.popNumber()
		if err != nil {
			return err
		}
		return pushBool(stack, n < 0)

	case Add:
		return runAdd(stack)

	case Sub:
		return runSub(stack)

	case Or:
		return runOr(stack, int(o.N), false)

	case OrVerify:
		return runOr(stack, int(o.N), true)

	case CheckHeightVerify:
		if ctx.BlockHeight < o.Height {
			return ctxerr(SCRIPT_ERR_HEIGHT_NOT_REACHED, "height %d below %d", ctx.BlockHeight, o.Height)
		}
		return nil

	case CheckHeight:
		d, err := blocksUntil(o.Height, ctx.BlockHeight)
		if err != nil {
			return err
		}
		return stack.Push(d)

	case CompareHeightVerify:
		target, err := popHeight(stack)
		if err != nil {
			return err
		}
		if target > 0 && ctx.BlockHeight < uint64(target) {
			return ctxerr(SCRIPT_ERR_HEIGHT_NOT_REACHED, "height %d below %d", ctx.BlockHeight, target)
		}
		return nil

	case CompareHeight:
		target, err := popHeight(stack)
		if err != nil {
			return err
		}
		if target <= 0 {
			return stack.Push(Number(0))
		}
		d, err := blocksUntil(uint64(target), ctx.BlockHeight)
		if err != nil {
			return err
		}
		return stack.Push(d)

	case HashBlake256:
		return runHash(stack, func(b []byte) [32]byte { return blake2b.Sum256(b) })

	case HashSha256:
		return runHash(stack, sha256.Sum256)

	case HashSha3:
		return runHash(stack, sha3.Sum256)

	case ToRistrettoPoint:
		return runToRistrettoPoint(stack)

	case CheckSig:
		ok, err := runCheckSig(stack, o.Message)
		if err != nil {
			return err
		}
		return pushBool(stack, ok)

	case CheckSigVerify:
		ok, err := runCheckSig(stack, o.Message)
		if err != nil {
			return err
		}
		if !ok {
			return scripterr(SCRIPT_ERR_VERIFY_FAILED, "CheckSigVerify failed")
		}
		return nil

	case CheckMultiSig:
		_, ok, err := runCheckMultiSig(stack, int(o.M), o.Keys, o.Message)
		if err != nil {
			return err
		}
		return pushBool(stack, ok)

	case CheckMultiSigVerify:
		_, ok, err := runCheckMultiSig(stack, int(o.M), o.Keys, o.Message)
		if err != nil {
			return err
		}
		if !ok {
			return scripterr(SCRIPT_ERR_VERIFY_FAILED, "CheckMultiSigVerify failed")
		}
		return nil

	case CheckMultiSigVerifyAggregatePubKey:
		agg, ok, err := runCheckMultiSig(stack, int(o.M), o.Keys, o.Message)
		if err != nil {
			return err
		}
		if !ok {
			return scripterr(SCRIPT_ERR_VERIFY_FAILED, "CheckMultiSigVerifyAggregatePubKey failed")
		}
		return stack.Push(PublicKey(agg))

	default:
		return scripterr(SCRIPT_ERR_UNKNOWN_OPCODE, "opcode 0x%02x has no execution rule", op.Code())
	}
}

func runAdd(stack *Stack) error {
	b, err := stack.Pop()
	if err != nil {
		return err
	}
	a, err := stack.Pop()
	if err != nil {
		return err
	}
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		if !ok {
			return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Add operands must have the same type")
		}
		if (y > 0 && x > math.MaxInt64-y) || (y < 0 && x < math.MinInt64-y) {
			return scripterr(SCRIPT_ERR_ARITHMETIC_OVERFLOW, "Add overflows")
		}
		return stack.Push(x + y)
	case Commitment:
		y, ok := b.(Commitment)
		if !ok {
			return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Add operands must have the same type")
		}
		return stack.Push(Commitment(crypto.Commitment(x).Add(crypto.Commitment(y))))
	case PublicKey:
		y, ok := b.(PublicKey)
		if !ok {
			return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Add operands must have the same type")
		}
		return stack.Push(PublicKey(crypto.Point(x).Add(crypto.Point(y))))
	case Signature:
		y, ok := b.(Signature)
		if !ok {
			return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Add operands must have the same type")
		}
		return stack.Push(Signature(crypto.Signature(x).Aggregate(crypto.Signature(y))))
	default:
		return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Add is not defined for this item type")
	}
}

func runSub(stack *Stack) error {
	b, err := stack.Pop()
	if err != nil {
		return err
	}
	a, err := stack.Pop()
	if err != nil {
		return err
	}
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		if !ok {
			return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Sub operands must have the same type")
		}
		if (y < 0 && x > math.MaxInt64+y) || (y > 0 && x < math.MinInt64+y) {
			return scripterr(SCRIPT_ERR_ARITHMETIC_OVERFLOW, "Sub overflows")
		}
		return stack.Push(x - y)
	case Commitment:
		y, ok := b.(Commitment)
		if !ok {
			return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Sub operands must have the same type")
		}
		return stack.Push(Commitment(crypto.Commitment(x).Sub(crypto.Commitment(y))))
	default:
		return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "Sub is not defined for this item type")
	}
}

func runOr(stack *Stack, n int, verify bool) error {
	x, err := stack.Pop()
	if err != nil {
		return err
	}
	found := false
	for i := 0; i < n; i++ {
		item, err := stack.Pop()
		if err != nil {
			return err
		}
		if item == x {
			found = true
		}
	}
	if verify {
		if !found {
			return scripterr(SCRIPT_ERR_VERIFY_FAILED, "OrVerify found no match")
		}
		return nil
	}
	return pushBool(stack, found)
}

func runHash(stack *Stack, digest func([]byte) [32]byte) error {
	item, err := stack.Pop()
	if err != nil {
		return err
	}
	var data []byte
	switch v := item.(type) {
	case Hash:
		data = v[:]
	case PublicKey:
		data = v[:]
	case Commitment:
		data = v[:]
	default:
		return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "hash opcode needs a hash, public key or commitment")
	}
	return stack.Push(Hash(digest(data)))
}

func runToRistrettoPoint(stack *Stack) error {
	item, err := stack.Pop()
	if err != nil {
		return err
	}
	var raw []byte
	switch v := item.(type) {
	case Scalar:
		raw = v[:]
	case Hash:
		raw = v[:]
	default:
		return scripterr(SCRIPT_ERR_TYPE_MISMATCH, "ToRistrettoPoint needs a scalar or hash")
	}
	sc, err := crypto.ScalarFromBytes(raw)
	if err != nil {
		return scripterr(SCRIPT_ERR_NON_CANONICAL_SCALAR, "%v", err)
	}
	return stack.Push(PublicKey(crypto.BaseMul(sc)))
}

func runCheckSig(stack *Stack, message [32]byte) (bool, error) {
	pkItem, err := stack.Pop()
	if err != nil {
		return false, err
	}
	pk, ok := pkItem.(PublicKey)
	if !ok {
		return false, scripterr(SCRIPT_ERR_TYPE_MISMATCH, "CheckSig needs a public key on top")
	}
	sigItem, err := stack.Pop()
	if err != nil {
		return false, err
	}
	sig, ok := sigItem.(Signature)
	if !ok {
		return false, scripterr(SCRIPT_ERR_TYPE_MISMATCH, "CheckSig needs a signature beneath the key")
	}
	return crypto.Signature(sig).Verify(crypto.Point(pk), message[:]), nil
}

// runCheckMultiSig pops m signatures and checks each against a distinct key
// of the ordered key list. Signatures must appear in key-list order; keys
// are consumed left to right.
func runCheckMultiSig(stack *Stack, m int, keys []crypto.Point, message [32]byte) (crypto.Point, bool, error) {
	if m == 0 || m > len(keys) || len(keys) > MaxMultisigKeys {
		return crypto.Point{}, false, scripterr(SCRIPT_ERR_MULTISIG_PARAMS, "invalid m-of-n %d of %d", m, len(keys))
	}
	// Spenders push signatures bottom-up in key order, so popping yields
	// them reversed.
	sigs := make([]crypto.Signature, m)
	for i := m - 1; i >= 0; i-- {
		item, err := stack.Pop()
		if err != nil {
			return crypto.Point{}, false, err
		}
		sig, ok := item.(Signature)
		if !ok {
			return crypto.Point{}, false, scripterr(SCRIPT_ERR_TYPE_MISMATCH, "CheckMultiSig needs %d signatures", m)
		}
		sigs[i] = crypto.Signature(sig)
	}

	var agg crypto.Point
	keyIdx := 0
	for _, sig := range sigs {
		matched := false
		for keyIdx < len(keys) {
			k := keys[keyIdx]
			keyIdx++
			if sig.Verify(k, message[:]) {
				agg = agg.Add(k)
				matched = true
				break
			}
		}
		if !matched {
			return crypto.Point{}, false, nil
		}
	}
	return agg, true, nil
}
