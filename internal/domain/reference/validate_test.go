package reference

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const quakeHeader = "title,magnitude,date_time,cdi,mmi,alert,tsunami,sig,net,nst,dmin,gap,magType,depth,latitude,longitude,location\n"

func TestValidateEarthquakes(t *testing.T) {
	Convey("Given an earthquake dataset", t, func() {
		body := quakeHeader +
			"M 7.0,7.0,22-11-2022 02:03,8,7,green,1,768,us,117,0.509,17,mww,14,-9.79,159.59,Malango\n" +
			"M 6.9,6.9,18-11-2022 13:37:12,,,,0,735,us,99,,34,mww,25,-4.95,100.73,Bengkulu\n" +
			",big,2022-11-18,x,,purple,no,1,,1.5,z,,,deep,n,e,\n"
		issues := Validate(mustRead(t, Earthquakes, body))

		Convey("Then only the bad row is reported, with every problem", func() {
			So(issues, ShouldHaveLength, 1)
			So(issues[0].Line, ShouldEqual, 4)
			for _, msg := range []string{
				"title missing", "magnitude not a valid float", "date_time wrong format",
				"cdi not an integer", "alert invalid", "tsunami not integer", "net empty",
				"nst not integer", "dmin not float", "magType empty", "depth not float",
				"latitude not float", "longitude not float", "location empty",
			} {
				So(issues[0].Message, ShouldContainSubstring, msg)
			}
			So(issues[0].Message, ShouldNotContainSubstring, "sig not integer")
			So(issues[0].String(), ShouldStartWith, "line 4: ")
		})
	})
}

func TestValidateFloods(t *testing.T) {
	header := strings.Join(FloodColumns, ",") + "\n"
	row := func(factor string, prob string) string {
		cells := make([]string, len(FloodColumns)-1)
		for i := range cells {
			cells[i] = "5"
		}
		cells[0] = factor
		return strings.Join(cells, ",") + "," + prob + "\n"
	}

	Convey("Given a flood dataset", t, func() {
		Convey("A valid file has no issues", func() {
			So(Validate(mustRead(t, Floods, header+row("3", "0.45"))), ShouldBeEmpty)
		})

		Convey("Out-of-range and malformed cells are reported per cell", func() {
			issues := Validate(mustRead(t, Floods, header+row("11", "1.5")+row("x", "y")))
			So(issues, ShouldHaveLength, 4)
			So(issues[0].Message, ShouldContainSubstring, "MonsoonIntensity = 11 out of range")
			So(issues[1].Message, ShouldContainSubstring, "FloodProbability 1.5 out of range")
			So(issues[2].Line, ShouldEqual, 3)
			So(issues[2].Message, ShouldContainSubstring, "invalid integer")
			So(issues[3].Message, ShouldContainSubstring, "invalid float")
		})

		Convey("Missing columns stop validation at the header", func() {
			issues := Validate(mustRead(t, Floods, "MonsoonIntensity\n3\n"))
			So(issues, ShouldHaveLength, 1)
			So(issues[0].Line, ShouldEqual, 1)
			So(issues[0].Message, ShouldContainSubstring, "FloodProbability")
		})
	})
}

func TestValidateWildfires(t *testing.T) {
	Convey("Given a wildfire dataset", t, func() {
		header := strings.Join(WildfireColumns, ",") + "\n"
		body := header +
			`2017,"71,499","10,026,086","$2,410,000,000","$508,000,000","$2,918,000,000"` + "\n" +
			`20x,many,1,"$1",abc,2` + "\n"
		issues := Validate(mustRead(t, Wildfires, body))

		Convey("Then separators and currency signs are accepted", func() {
			So(issues, ShouldHaveLength, 1)
			So(issues[0].Line, ShouldEqual, 3)
			So(issues[0].Message, ShouldContainSubstring, "invalid Year")
			So(issues[0].Message, ShouldContainSubstring, "invalid Fires count")
			So(issues[0].Message, ShouldContainSubstring, "invalid DOIAgencies amount")
			So(issues[0].Message, ShouldNotContainSubstring, "Total")
		})
	})

	Convey("Unknown datasets have no rules", t, func() {
		So(Validate(mustRead(t, "other", "a\n1\n")), ShouldBeEmpty)
	})
}

func TestValidateLineNumbers(t *testing.T) {
	Convey("Given a file with blank lines and a multi-line quoted cell", t, func() {
		body := "\n" + strings.Join(WildfireColumns, ",") + "\n" +
			"\n" +
			"2017,1,1,1,1,1\n" +
			`2018,1,1,1,1,"note` + "\n" + `spanning lines"` + "\n" +
			"\n" +
			"bad,1,1,1,1,1\n"
		tbl := mustRead(t, Wildfires, body)

		Convey("Then rows keep the lines they start on", func() {
			So(tbl.HeaderLine(), ShouldEqual, 2)
			So(tbl.Line(0), ShouldEqual, 4)
			So(tbl.Line(1), ShouldEqual, 5)
			So(tbl.Line(2), ShouldEqual, 8)
		})

		Convey("Then issues point at the real source line", func() {
			issues := Validate(tbl)
			So(issues, ShouldHaveLength, 2)
			So(issues[0].Line, ShouldEqual, 5)
			So(issues[0].Message, ShouldContainSubstring, "invalid Total amount")
			So(issues[1].Line, ShouldEqual, 8)
			So(issues[1].Message, ShouldContainSubstring, "invalid Year")
		})
	})

	Convey("Given a table built in memory", t, func() {
		tbl := NewTable(Floods, []string{"MonsoonIntensity"}, [][]string{{"3"}, {"4"}})

		Convey("Then rows are numbered after the header", func() {
			So(tbl.HeaderLine(), ShouldEqual, 1)
			So(tbl.Line(1), ShouldEqual, 3)
			So(Validate(tbl)[0].Line, ShouldEqual, 1)
		})
	})
}
