package tessellate

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// stlRecordSize is the byte size of one binary STL facet record: a normal,
// three vertices (4-byte floats) and a 2-byte attribute count.
const stlRecordSize = 4*12 + 2

// ReadSTL reads an STL stream, binary or ASCII, and returns a flat facet
// buffer in file units.
func ReadSTL(r io.Reader) ([]float64, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(6)
	if err != nil {
		return nil, fmt.Errorf("bad STL (truncated header)")
	}
	if string(head[:5]) == "solid" {
		// Binary files may also start with "solid"; probe for ASCII keywords.
		probe, _ := br.Peek(512)
		if strings.Contains(string(probe), "facet") {
			return readASCIISTL(br)
		}
	}
	return readBinarySTL(br)
}

// ReadSTLFile reads an STL file. See ReadSTL.
func ReadSTLFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	facets, err := ReadSTL(f)
	if err != nil {
		return nil, fmt.Errorf("bad STL file '%s' (%s)", path, err)
	}
	return facets, nil
}

func readBinarySTL(r io.Reader) ([]float64, error) {
	var header [80]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("bad STL (truncated header)")
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("bad STL (truncated facet count)")
	}
	facets := make([]float64, 0, int(count)*9)
	var record [stlRecordSize]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, record[:]); err != nil {
			return nil, fmt.Errorf("bad STL (truncated facet %d)", i)
		}
		// Skip the normal (bytes 0..11); vertices start at byte 12.
		for j := 0; j < 9; j++ {
			bits := binary.LittleEndian.Uint32(record[12+4*j:])
			facets = append(facets, float64(math.Float32frombits(bits)))
		}
	}
	return facets, nil
}

func readASCIISTL(r io.Reader) ([]float64, error) {
	var facets []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 4 && fields[0] == "vertex" {
			for _, f := range fields[1:] {
				x, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("bad STL (invalid vertex at line %d)", line)
				}
				facets = append(facets, x)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(facets) == 0 || len(facets)%9 != 0 {
		return nil, fmt.Errorf("bad STL (found %d vertices)", len(facets)/3)
	}
	return facets, nil
}

// WriteSTL writes a flat facet buffer as binary STL, with facet normals
// recomputed from the winding order.
func WriteSTL(w io.Writer, facets []float64) error {
	if len(facets)%9 != 0 {
		return fmt.Errorf("bad facets (expected a multiple of 9 floats, found %d)", len(facets))
	}
	var header [80]byte
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	count := uint32(len(facets) / 9)
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return err
	}
	var record [stlRecordSize]byte
	for i := 0; i < int(count); i++ {
		f := facets[i*9 : i*9+9]
		a := v3.Vec{X: f[0], Y: f[1], Z: f[2]}
		b := v3.Vec{X: f[3], Y: f[4], Z: f[5]}
		c := v3.Vec{X: f[6], Y: f[7], Z: f[8]}
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Length(); l > 0 {
			n = n.MulScalar(1 / l)
		}
		binary.LittleEndian.PutUint32(record[0:], math.Float32bits(float32(n.X)))
		binary.LittleEndian.PutUint32(record[4:], math.Float32bits(float32(n.Y)))
		binary.LittleEndian.PutUint32(record[8:], math.Float32bits(float32(n.Z)))
		for j := 0; j < 9; j++ {
			binary.LittleEndian.PutUint32(record[12+4*j:], math.Float32bits(float32(f[j])))
		}
		if _, err := w.Write(record[:]); err != nil {
			return err
		}
	}
	return nil
}

// WriteSTLFile writes a flat facet buffer to a binary STL file.
func WriteSTLFile(path string, facets []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSTL(f, facets); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
