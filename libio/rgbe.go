package libio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// RgbeToFloat expands a shared exponent pixel into linear rgb.
func RgbeToFloat(rgbe [4]byte) (r, g, b float32) {
	if rgbe[3] == 0 {
		return 0, 0, 0
	}
	f := math32.Ldexp(1, int(rgbe[3])-(128+8))
	return float32(rgbe[0]) * f, float32(rgbe[1]) * f, float32(rgbe[2]) * f
}

// FloatToRgbe packs linear rgb with an 8 bit mantissa per channel and one shared exponent.
// Negative values are clamped to zero.
func FloatToRgbe(r, g, b float32) (rgbe [4]byte) {
	r, g, b = math32.Max(r, 0), math32.Max(g, 0), math32.Max(b, 0)
	v := math32.Max(r, math32.Max(g, b))
	if v < 1e-32 {
		return
	}
	m, e := math32.Frexp(v)
	v = m * 256 / v
	rgbe[0] = mantissa(r * v)
	rgbe[1] = mantissa(g * v)
	rgbe[2] = mantissa(b * v)
	rgbe[3] = byte(e + 128)
	return
}

func mantissa(v float32) byte {
	if v >= 255 {
		return 255
	}
	return byte(v)
}

// DecodeHdr reads a Radiance rgbe image into a 3 channel float image.
// Flat and run length encoded scanlines are supported.
// The rows are stored bottom up so the result can be uploaded to GL as is.
func DecodeHdr(r io.Reader) (*FloatImage, error) {
	br := bufio.NewReader(r)

	magic, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("expected hdr header: %w", err)
	}
	magic = strings.TrimSpace(magic)
	if magic != "#?RADIANCE" && magic != "#?RGBE" {
		return nil, fmt.Errorf("hdr magic %q: %w", magic, ErrCorruptHeader)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("expected hdr header line: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "FORMAT=") && line != "FORMAT=32-bit_rle_rgbe" {
			return nil, fmt.Errorf("hdr format %q unsupported: %w", line[len("FORMAT="):], ErrCorruptHeader)
		}
	}

	resolution, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("expected hdr resolution: %w", err)
	}
	fields := strings.Fields(resolution)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return nil, fmt.Errorf("hdr resolution %q unsupported: %w", strings.TrimSpace(resolution), ErrCorruptHeader)
	}
	height, errH := strconv.Atoi(fields[1])
	width, errW := strconv.Atoi(fields[3])
	if errH != nil || errW != nil {
		return nil, fmt.Errorf("hdr resolution %q invalid: %w", strings.TrimSpace(resolution), ErrCorruptHeader)
	}
	if err := CheckDimensions(width, height); err != nil {
		return nil, fmt.Errorf("hdr resolution %q: %w", strings.TrimSpace(resolution), err)
	}

	img := NewFloatImage(nil, 3, width, height)
	scanline := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(br, scanline, width); err != nil {
			return nil, fmt.Errorf("could not read hdr scanline %d: %w", y, err)
		}
		row := img.Pix[(height-y-1)*width*3:]
		for x := 0; x < width; x++ {
			var px [4]byte
			copy(px[:], scanline[x*4:x*4+4])
			row[x*3+0], row[x*3+1], row[x*3+2] = RgbeToFloat(px)
		}
	}
	return img, nil
}

func readScanline(br *bufio.Reader, dst []byte, width int) error {
	if width < 8 || width > 0x7fff {
		_, err := io.ReadFull(br, dst)
		return err
	}

	var head [4]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return err
	}
	if head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		// not run length encoded, the head is the first pixel
		copy(dst, head[:])
		_, err := io.ReadFull(br, dst[4:])
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("scanline width mismatch: %w", ErrCorruptHeader)
	}

	// the channels are stored one after another
	for ch := 0; ch < 4; ch++ {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				if x+n > width {
					return fmt.Errorf("run exceeds scanline: %w", ErrCorruptHeader)
				}
				value, err := br.ReadByte()
				if err != nil {
					return err
				}
				for i := 0; i < n; i++ {
					dst[(x+i)*4+ch] = value
				}
				x += n
			} else {
				n := int(count)
				if n == 0 || x+n > width {
					return fmt.Errorf("invalid literal run of %d: %w", n, ErrCorruptHeader)
				}
				for i := 0; i < n; i++ {
					value, err := br.ReadByte()
					if err != nil {
						return err
					}
					dst[(x+i)*4+ch] = value
				}
				x += n
			}
		}
	}
	return nil
}

// EncodeHdr writes a 3 channel float image in the Radiance format.
// With rle set, scanlines between 8 and 32767 pixels wide are run length encoded.
func EncodeHdr(w io.Writer, img *FloatImage, rle bool) error {
	if img.Channels < 3 {
		return fmt.Errorf("hdr needs 3 channels, got %d", img.Channels)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", img.Height, img.Width)

	width := img.Width
	scanline := make([]byte, width*4)
	var buf bytes.Buffer
	for y := img.Height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			px := img.At(x, y)
			rgbe := FloatToRgbe(px[0], px[1], px[2])
			copy(scanline[x*4:], rgbe[:])
		}
		if !rle || width < 8 || width > 0x7fff {
			bw.Write(scanline)
			continue
		}
		buf.Reset()
		buf.Write([]byte{2, 2, byte(width >> 8), byte(width & 0xff)})
		channel := make([]byte, width)
		for ch := 0; ch < 4; ch++ {
			for x := 0; x < width; x++ {
				channel[x] = scanline[x*4+ch]
			}
			writeRuns(&buf, channel)
		}
		bw.Write(buf.Bytes())
	}
	return bw.Flush()
}

// runs shorter than this are stored as literals
const minRunLength = 4

func writeRuns(buf *bytes.Buffer, data []byte) {
	n := len(data)
	for cur := 0; cur < n; {
		// find the next run
		begRun := cur
		runCount, oldRunCount := 0, 0
		for runCount < minRunLength && begRun < n {
			begRun += runCount
			oldRunCount = runCount
			runCount = 1
			for begRun+runCount < n && runCount < 127 && data[begRun] == data[begRun+runCount] {
				runCount++
			}
		}
		// a short run directly before the long one
		if oldRunCount > 1 && oldRunCount == begRun-cur {
			buf.WriteByte(byte(128 + oldRunCount))
			buf.WriteByte(data[cur])
			cur = begRun
		}
		// literals up to the run
		for cur < begRun {
			count := begRun - cur
			if count > 128 {
				count = 128
			}
			buf.WriteByte(byte(count))
			buf.Write(data[cur : cur+count])
			cur += count
		}
		if runCount >= minRunLength {
			buf.WriteByte(byte(128 + runCount))
			buf.WriteByte(data[begRun])
			cur += runCount
		}
	}
}
