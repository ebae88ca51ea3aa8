package mpi

import (
	"encoding/binary"
	"math"

	"github.com/dmatrix/dense/internal/xerrors"

	"github.com/dmatrix/dense/dtype"
)

// wireWidth returns the number of bytes one element of T occupies on the
// wire. Complex types are encoded as two consecutive floats.
func wireWidth[T dtype.Scalar]() int {
	var zero T
	switch any(zero).(type) {
	case float32:
		return 4
	case float64:
		return 8
	case complex64:
		return 8
	case complex128:
		return 16
	default:
		panic("mpi: unsupported scalar type")
	}
}

// marshal encodes v into a freshly allocated byte buffer.
func marshal[T dtype.Scalar](v []T) []byte {
	w := wireWidth[T]()
	buf := make([]byte, len(v)*w)
	marshalInto[T](v, buf)
	return buf
}

// marshalInto encodes v into buf, which must be exactly len(v)*wireWidth
// bytes.
func marshalInto[T dtype.Scalar](v []T, buf []byte) {
	w := wireWidth[T]()
	for i, x := range v {
		off := i * w
		switch val := any(x).(type) {
		case float32:
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(val))
		case float64:
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(val))
		case complex64:
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(real(val)))
			binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(imag(val)))
		case complex128:
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(real(val)))
			binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(imag(val)))
		default:
			panic("mpi: unsupported scalar type")
		}
	}
}

// unmarshal decodes buf into v, which must already have the right length.
func unmarshal[T dtype.Scalar](buf []byte, v []T) {
	w := wireWidth[T]()
	for i := range v {
		off := i * w
		var zero T
		switch any(zero).(type) {
		case float32:
			v[i] = any(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))).(T)
		case float64:
			v[i] = any(math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))).(T)
		case complex64:
			re := math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))
			v[i] = any(complex(re, im)).(T)
		case complex128:
			re := math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
			im := math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8:]))
			v[i] = any(complex(re, im)).(T)
		default:
			panic("mpi: unsupported scalar type")
		}
	}
}

// sumReducer builds a Reducer that adds n elements of type T, used to
// realize Op == Sum for AllReduce/Reduce/ReduceScatter.
func sumReducer[T dtype.Scalar](n int) Reducer {
	return func(dst, src []byte) {
		dv := make([]T, n)
		sv := make([]T, n)
		unmarshal[T](dst, dv)
		unmarshal[T](src, sv)
		for i := range dv {
			dv[i] = dtype.Add(dv[i], sv[i])
		}
		marshalInto[T](dv, dst)
	}
}

// Broadcast copies buf from root to every rank, encoding/decoding via T.
func Broadcast[T dtype.Scalar](c Comm, buf []T, root int) error {
	w := marshal(buf)
	if err := c.Broadcast(w, root); err != nil {
		return xerrors.Communication(err, "broadcast")
	}
	unmarshal(w, buf)
	return nil
}

// AllReduceSum sums sbuf across every rank into rbuf on every rank.
func AllReduceSum[T dtype.Scalar](c Comm, sbuf, rbuf []T) error {
	if len(sbuf) != len(rbuf) {
		return xerrors.Precondition("mpi.AllReduceSum: length mismatch %d != %d", len(sbuf), len(rbuf))
	}
	sw := marshal(sbuf)
	rw := make([]byte, len(sw))
	if err := c.AllReduce(sw, rw, sumReducer[T](len(sbuf))); err != nil {
		return xerrors.Communication(err, "allreduce")
	}
	unmarshal(rw, rbuf)
	return nil
}

// ReduceSum sums sbuf across every rank into rbuf, valid on root only.
func ReduceSum[T dtype.Scalar](c Comm, sbuf, rbuf []T, root int) error {
	if len(sbuf) != len(rbuf) {
		return xerrors.Precondition("mpi.ReduceSum: length mismatch %d != %d", len(sbuf), len(rbuf))
	}
	sw := marshal(sbuf)
	rw := make([]byte, len(sw))
	if err := c.Reduce(sw, rw, sumReducer[T](len(sbuf)), root); err != nil {
		return xerrors.Communication(err, "reduce")
	}
	if c.Rank() == root {
		unmarshal(rw, rbuf)
	}
	return nil
}

// AllGather concatenates every rank's sbuf into rbuf (length
// len(sbuf)*c.Size()) in rank order, on every rank.
func AllGather[T dtype.Scalar](c Comm, sbuf []T, rbuf []T) error {
	if len(rbuf) != len(sbuf)*c.Size() {
		return xerrors.Precondition("mpi.AllGather: rbuf length %d != %d*%d", len(rbuf), len(sbuf), c.Size())
	}
	sw := marshal(sbuf)
	rw := make([]byte, len(sw)*c.Size())
	if err := c.AllGather(sw, rw); err != nil {
		return xerrors.Communication(err, "allgather")
	}
	unmarshal(rw, rbuf)
	return nil
}

// ReduceScatterSum treats sbuf as c.Size() equal chunks of len(rbuf) and
// leaves rank i holding the sum, across every rank, of chunk i.
func ReduceScatterSum[T dtype.Scalar](c Comm, sbuf, rbuf []T) error {
	if len(sbuf) != len(rbuf)*c.Size() {
		return xerrors.Precondition("mpi.ReduceScatterSum: sbuf length %d != %d*%d", len(sbuf), len(rbuf), c.Size())
	}
	sw := marshal(sbuf)
	rw := make([]byte, len(rbuf)*wireWidth[T]())
	if err := c.ReduceScatter(sw, rw, sumReducer[T](len(rbuf))); err != nil {
		return xerrors.Communication(err, "reducescatter")
	}
	unmarshal(rw, rbuf)
	return nil
}

// ReduceScatterSumV generalizes ReduceScatterSum to unequal per-rank chunk
// widths: counts[r] gives the number of T elements rank r's chunk holds
// (identical on every rank, summing to len(sbuf)), and rbuf must already be
// sized counts[c.Rank()].
func ReduceScatterSumV[T dtype.Scalar](c Comm, sbuf, rbuf []T, counts []int) error {
	if len(counts) != c.Size() {
		return xerrors.Precondition("mpi.ReduceScatterSumV: counts length %d != %d", len(counts), c.Size())
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != len(sbuf) {
		return xerrors.Precondition("mpi.ReduceScatterSumV: sbuf length %d != sum(counts) %d", len(sbuf), total)
	}
	if counts[c.Rank()] != len(rbuf) {
		return xerrors.Precondition("mpi.ReduceScatterSumV: rbuf length %d != counts[%d]=%d", len(rbuf), c.Rank(), counts[c.Rank()])
	}
	sw := marshal(sbuf)
	w := wireWidth[T]()
	byteCounts := make([]int, len(counts))
	for r, n := range counts {
		byteCounts[r] = n * w
	}
	rw := make([]byte, len(rbuf)*w)
	if err := c.ReduceScatterV(sw, rw, byteCounts, sumReducer[T](len(rbuf))); err != nil {
		return xerrors.Communication(err, "reducescatterv")
	}
	unmarshal(rw, rbuf)
	return nil
}

// SendRecv exchanges sbuf with dst and rbuf with src in one blocking call.
func SendRecv[T dtype.Scalar](c Comm, sbuf []T, dst int, sendTag int, rbuf []T, src int, recvTag int) error {
	sw := marshal(sbuf)
	rw := make([]byte, len(rbuf)*wireWidth[T]())
	if err := c.SendRecv(sw, dst, sendTag, rw, src, recvTag); err != nil {
		return xerrors.Communication(err, "sendrecv")
	}
	unmarshal(rw, rbuf)
	return nil
}

// Barrier blocks until every rank has called Barrier.
func Barrier(c Comm) error {
	if err := c.Barrier(); err != nil {
		return xerrors.Communication(err, "barrier")
	}
	return nil
}
