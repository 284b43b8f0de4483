package fields

// View is a strided window over raw element bytes.
type View struct {
	Data   []byte
	Stride int
	Elem   int
	Len    int
}

// At returns the bytes of element i. Callers keep i inside [0, Len).
func (v View) At(i int) []byte {
	off := i * v.Stride
	return v.Data[off : off+v.Elem : off+v.Elem]
}

// Contiguous reports whether elements are densely packed.
func (v View) Contiguous() bool { return v.Stride == v.Elem }

// Slice narrows v to n elements starting at element start.
func (v View) Slice(start, n int) View {
	if n == 0 {
		return View{Stride: v.Stride, Elem: v.Elem}
	}
	off := start * v.Stride
	end := off + (n-1)*v.Stride + v.Elem
	return View{Data: v.Data[off:end], Stride: v.Stride, Elem: v.Elem, Len: n}
}

// Copy moves min(dst.Len, src.Len) elements of equal width from src to dst and
// returns the number of elements copied.
func Copy(dst, src View) int {
	n := min(dst.Len, src.Len)
	if n == 0 || dst.Elem != src.Elem {
		return 0
	}
	if dst.Contiguous() && src.Contiguous() {
		copy(dst.Data[:n*dst.Elem], src.Data[:n*src.Elem])
		return n
	}
	for i := 0; i < n; i++ {
		copy(dst.At(i), src.At(i))
	}
	return n
}

// Packed returns the logical bytes of v with strides removed.
func Packed(v View) []byte {
	if v.Contiguous() {
		return v.Data[:v.Len*v.Elem]
	}
	out := make([]byte, v.Len*v.Elem)
	Copy(View{Data: out, Stride: v.Elem, Elem: v.Elem, Len: v.Len}, v)
	return out
}
