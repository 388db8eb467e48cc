// Package serialization reads and writes the fnn interchange formats.
//
// The text format is a line-oriented record stream shared with the external
// numeric solver:
//
//	sequential
//	<N>                    record count, %7d
//	normalisation          optional input normalisation
//	<width>
//	<alpha>                one value or <width> tab-separated values, %.7e
//	<beta>
//	dense                  one block per dense layer, forward order
//	<Nin>
//	<Nout>
//	<p_1>\t...\t<p_M>      M = Nout*(Nin+1): bias, then column-major weights
//	<activation>           linear | tanh | relu
//	dropout                optional, after a dense block
//	<width>
//	<rate>
//	normalisation          optional output normalisation
//	...
//
// N counts every record, dropout and normalisation included.
//
// The binary format is the Fortran sequential unformatted layout used by
// the oracle: each block is framed by its byte length as a little-endian
// int32 before and after the payload.
//
// Example usage:
//
//	net, err := serialization.Decode(f, serialization.DefaultReaderOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	y, err := net.Apply(x)
//
//	if err := serialization.Encode(w, net, serialization.WriterOptions{}); err != nil {
//	    log.Fatal(err)
//	}
package serialization
