package phase

import (
	"github.com/zclconf/go-cty/cty"

	"grimm.is/spring/internal/dispatch"
	"grimm.is/spring/internal/errors"
)

// ConvertArgs turns a step's args list into dispatch values. Strings stay
// strings, whole numbers become ints and bools become 1 or 0. A null value
// means no arguments.
func ConvertArgs(v cty.Value) ([]dispatch.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, errors.New(errors.KindArgument, "args must be known at load time")
	}
	ty := v.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, errors.Errorf(errors.KindArgument, "args must be a list, got %s", ty.FriendlyName())
	}

	elems := v.AsValueSlice()
	out := make([]dispatch.Value, 0, len(elems))
	for i, e := range elems {
		dv, err := convertOne(e)
		if err != nil {
			return nil, errors.Attr(err, "arg", i+1)
		}
		out = append(out, dv)
	}
	return out, nil
}

func convertOne(v cty.Value) (dispatch.Value, error) {
	if v.IsNull() || !v.IsKnown() {
		return dispatch.Nil, errors.New(errors.KindArgument, "argument is null")
	}
	switch v.Type() {
	case cty.String:
		return dispatch.String(v.AsString()), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return dispatch.Nil, errors.Errorf(errors.KindArgument, "argument %s is not a whole number", bf.Text('g', -1))
		}
		n, acc := bf.Int64()
		if acc != 0 {
			return dispatch.Nil, errors.Errorf(errors.KindArgument, "argument %s overflows int64", bf.Text('g', -1))
		}
		return dispatch.Int(n), nil
	case cty.Bool:
		if v.True() {
			return dispatch.Int(1), nil
		}
		return dispatch.Int(0), nil
	default:
		return dispatch.Nil, errors.Errorf(errors.KindArgument, "unsupported argument type %s", v.Type().FriendlyName())
	}
}
