package reference

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const earthquakesCSV = "\ufefftitle,Magnitude,depth,latitude,longitude\n" +
	"M 7.0 - Tokyo,7.0,10,35.68,139.69\n" +
	"M 6.0 - near Tokyo,6.0,30,35.70,139.70\n" +
	"M 5.0 - Chile,5.0,, -33.45,-70.66\n" +
	"M 4.0 - missing coords,4.0,20,,\n"

func mustRead(t *testing.T, name, body string) *Table {
	t.Helper()
	tbl, err := Read(name, strings.NewReader(body))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return tbl
}

func TestRead(t *testing.T) {
	Convey("Given a CSV with a BOM and ragged rows", t, func() {
		tbl := mustRead(t, "earthquakes", earthquakesCSV+"short,1\n\n")

		Convey("Then the header is cleaned and rows are padded", func() {
			So(tbl.Name(), ShouldEqual, "earthquakes")
			So(tbl.Columns(), ShouldResemble, []string{"title", "Magnitude", "depth", "latitude", "longitude"})
			So(tbl.Len(), ShouldEqual, 5)
			So(tbl.Cell(4, 4), ShouldEqual, "")
			So(tbl.Cell(2, 3), ShouldEqual, "-33.45")
		})

		Convey("Then columns resolve case-insensitively", func() {
			i, ok := tbl.Column(" magnitude ")
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 1)
			_, ok = tbl.Column("rainfall")
			So(ok, ShouldBeFalse)
		})

		Convey("Then Columns returns a copy", func() {
			cols := tbl.Columns()
			cols[0] = "changed"
			So(tbl.Columns()[0], ShouldEqual, "title")
		})
	})

	Convey("Given an empty input", t, func() {
		_, err := Read("floods", strings.NewReader(""))

		Convey("Then ErrNoHeader is returned", func() {
			So(errors.Is(err, ErrNoHeader), ShouldBeTrue)
		})
	})

	Convey("Given a file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "wildfires.csv")
		So(os.WriteFile(path, []byte("Year,Fires\n2020,\"58,950\"\n"), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			tbl, err := Load("wildfires", path)

			Convey("Then quoted separators stay in one cell", func() {
				So(err, ShouldBeNil)
				So(tbl.Cell(0, 1), ShouldEqual, "58,950")
			})
		})

		Convey("When the file is missing", func() {
			_, err := Load("wildfires", filepath.Join(t.TempDir(), "nope.csv"))

			Convey("Then the error is returned", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})
	})
}

func TestMean(t *testing.T) {
	Convey("Given an earthquake table", t, func() {
		tbl := mustRead(t, "earthquakes", earthquakesCSV)

		Convey("When averaging a numeric column", func() {
			m, err := tbl.Mean("magnitude")

			Convey("Then every row contributes", func() {
				So(err, ShouldBeNil)
				So(m, ShouldAlmostEqual, 5.5, 1e-9)
			})
		})

		Convey("When the column has empty cells", func() {
			m, err := tbl.Mean("depth")

			Convey("Then they are skipped", func() {
				So(err, ShouldBeNil)
				So(m, ShouldAlmostEqual, 20, 1e-9)
			})
		})

		Convey("When the column is text", func() {
			_, err := tbl.Mean("title")

			Convey("Then ErrNonNumericValue is returned", func() {
				So(errors.Is(err, ErrNonNumericValue), ShouldBeTrue)
			})
		})

		Convey("When the column is missing", func() {
			_, err := tbl.Mean("rainfall")

			Convey("Then ErrColumnNotFound is returned", func() {
				So(errors.Is(err, ErrColumnNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given wildfire counts with thousands separators", t, func() {
		tbl := mustRead(t, "wildfires", "Year,Fires\n2019,\"50,477\"\n2020,\"58,950\"\n2021,n/a\n")

		Convey("When stripping commas and coercing", func() {
			m, err := tbl.Mean("fires", StripChars(","), Coerce())

			Convey("Then unparsable cells are ignored", func() {
				So(err, ShouldBeNil)
				So(m, ShouldAlmostEqual, 54713.5, 1e-9)
			})
		})

		Convey("When every cell is unparsable", func() {
			_, err := mustRead(t, "wildfires", "Fires\nx\ny\n").Mean("fires", Coerce())

			Convey("Then ErrNoValues is returned", func() {
				So(errors.Is(err, ErrNoValues), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty table", t, func() {
		_, err := Empty("floods").Mean("rainfall")

		Convey("Then no column is found", func() {
			So(errors.Is(err, ErrColumnNotFound), ShouldBeTrue)
		})
	})
}

func TestNearbyCount(t *testing.T) {
	Convey("Given an earthquake table", t, func() {
		tbl := mustRead(t, "earthquakes", earthquakesCSV)

		Convey("When querying a coincident point", func() {
			Convey("Then nearby rows are counted and empty coordinates skipped", func() {
				So(tbl.NearbyCount(35.68, 139.69, 100), ShouldEqual, 2)
			})
		})

		Convey("When querying a far-away point", func() {
			Convey("Then the count is zero", func() {
				So(tbl.NearbyCount(0, 0, 100), ShouldEqual, 0)
			})
		})

		Convey("When the radius grows", func() {
			Convey("Then the count never decreases", func() {
				So(tbl.NearbyCount(35.68, 139.69, 20000), ShouldEqual, 3)
			})
		})
	})

	Convey("Given alias column names", t, func() {
		tbl := mustRead(t, "floods", "Lat,LNG,lat\n10,20,99\n")

		Convey("Then the first matching column is used", func() {
			lat, lon, ok := tbl.CoordinateColumns()
			So(ok, ShouldBeTrue)
			So(lat, ShouldEqual, 0)
			So(lon, ShouldEqual, 1)
			So(tbl.NearbyCount(10, 20, 1), ShouldEqual, 1)
		})
	})

	Convey("Given a table without coordinates", t, func() {
		tbl := mustRead(t, "floods", "MonsoonIntensity,FloodProbability\n5,0.5\n")

		Convey("Then the count is zero", func() {
			So(tbl.NearbyCount(10, 20, 100), ShouldEqual, 0)
		})
	})

	Convey("Given a non-numeric coordinate cell", t, func() {
		tbl := mustRead(t, "wildfires", "lat,lon\n10,20\nnorth,20\n")

		Convey("Then the count degrades to zero", func() {
			So(tbl.NearbyCount(10, 20, 100), ShouldEqual, 0)
		})
	})
}
