package darwin

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
)

// CallingPoint is one scheduled stop of a journey. Times are working
// timetable values in HH:MM:SS as published by the feed.
type CallingPoint struct {
	CRS       string `xml:"tpl,attr"`
	Arrival   string `xml:"wta,attr"`
	Departure string `xml:"wtd,attr"`
	Platform  string `xml:"plat,attr"`
}

// Journey is one scheduled train service extracted from a daily
// timetable file.
type Journey struct {
	RID     string         `xml:"rid,attr"`
	TrainID string         `xml:"trainId,attr"`
	Origin  []CallingPoint `xml:"OR"`
	Stops   []CallingPoint `xml:"IP"`
	Dest    []CallingPoint `xml:"DT"`
}

// CallsAt reports whether the journey stops at the given location code.
func (j Journey) CallsAt(code string) bool {
	code = strings.ToUpper(code)
	for _, cp := range j.Origin {
		if strings.EqualFold(cp.CRS, code) {
			return true
		}
	}
	for _, cp := range j.Stops {
		if strings.EqualFold(cp.CRS, code) {
			return true
		}
	}
	for _, cp := range j.Dest {
		if strings.EqualFold(cp.CRS, code) {
			return true
		}
	}
	return false
}

type ItfDarwin interface {
	ListTimetableFiles(ctx context.Context) ([]string, error)
	JourneysCallingAt(ctx context.Context, key string, code string) ([]Journey, error)
}

type darwinClient struct {
	client     *s3.S3
	bucketName string
	prefix     string
	log        *logrus.Logger
}

func New(log *logrus.Logger) (ItfDarwin, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	return &darwinClient{
		client:     s3.New(sess),
		bucketName: os.Getenv("DARWIN_BUCKET_NAME"),
		prefix:     os.Getenv("DARWIN_PREFIX"),
		log:        log,
	}, nil
}

func newSession() (*session.Session, error) {
	region := os.Getenv("DARWIN_AWS_REGION")
	if region == "" {
		region = "eu-west-1"
	}

	return session.NewSession(&aws.Config{
		Region: aws.String(region),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("DARWIN_AWS_KEY"),
			os.Getenv("DARWIN_AWS_SECRET"),
			"",
		),
	})
}

// ListTimetableFiles returns the daily timetable object keys under the
// configured prefix, newest last.
func (d *darwinClient) ListTimetableFiles(ctx context.Context) ([]string, error) {
	var keys []string

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucketName),
		Prefix: aws.String(d.prefix),
	}

	err := d.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := aws.StringValue(obj.Key)
				if strings.HasSuffix(key, ".xml.gz") {
					keys = append(keys, key)
				}
			}
			return true
		})
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"bucket": d.bucketName,
			"prefix": d.prefix,
			"error":  err.Error(),
		}).Error("Failed to list timetable files")
		return nil, fmt.Errorf("failed to list timetable files: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// JourneysCallingAt streams one gzipped timetable file and collects the
// journeys that call at the given location code.
func (d *darwinClient) JourneysCallingAt(ctx context.Context, key string, code string) ([]Journey, error) {
	out, err := d.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timetable file %s: %w", key, err)
	}
	defer out.Body.Close()

	gz, err := gzip.NewReader(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream for %s: %w", key, err)
	}
	defer gz.Close()

	journeys, err := scanJourneys(gz, code)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timetable file %s: %w", key, err)
	}

	d.log.WithFields(logrus.Fields{
		"key":      key,
		"code":     code,
		"journeys": len(journeys),
	}).Debug("Timetable scan finished")

	return journeys, nil
}

// scanJourneys walks the XML token stream so full daily timetables are
// never held in memory at once.
func scanJourneys(r io.Reader, code string) ([]Journey, error) {
	var journeys []Journey

	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Journey" {
			continue
		}

		var j Journey
		if err := decoder.DecodeElement(&j, &start); err != nil {
			return nil, err
		}
		if code == "" || j.CallsAt(code) {
			journeys = append(journeys, j)
		}
	}

	return journeys, nil
}
