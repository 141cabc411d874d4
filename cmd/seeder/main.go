package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/openquill/threadlens"
	"github.com/openquill/threadlens/core"
	"github.com/openquill/threadlens/ingestion"
)

var samples = []core.Document{
	{Table: "posts", RecordID: "t3_1a01", Author: "missionlocal", Title: "Best taco truck in the Mission?", Body: "Looking for recommendations, the one on 24th street closed last month.", Location: "San Francisco"},
	{Table: "posts", RecordID: "t3_1a02", Author: "bikecommuter", Title: "Valencia bike lane changes", Body: "The center-running lane is gone, curbside protected lanes going in this fall.", Location: "San Francisco"},
	{Table: "posts", RecordID: "t3_1a03", Author: "fogwatcher", Title: "Karl is back", Body: "Sunset district completely socked in by 3pm again. Summer in the city.", Location: "San Francisco"},
	{Table: "posts", RecordID: "t3_1a04", Author: "bkfoodie", Title: "Underrated pizza slices in Brooklyn", Body: "Everyone talks about the famous spots but the corner place on Myrtle is better.", Location: "New York"},
	{Table: "posts", RecordID: "t3_1a05", Author: "subwayrider", Title: "G train shutdown survival guide", Body: "Shuttle buses, transfer tips, and which stations to avoid entirely.", Location: "New York"},
	{Table: "posts", RecordID: "t3_1a06", Author: "lakemerritt", Title: "Farmers market moved", Body: "The Saturday market is now at the amphitheater side of the lake.", Location: "Oakland"},
	{Table: "posts", RecordID: "t3_1a07", Author: "echoparker", Title: "Hidden staircase walks in LA", Body: "Mapped out a loop through the Elysian Heights stairs, about 4 miles.", Location: "Los Angeles"},
	{Table: "posts", RecordID: "t3_1a08", Author: "transitnerd", Title: "BART schedule change discussion", Body: "New timetable drops next month with shorter evening headways on the yellow line."},
	{Table: "posts", RecordID: "t3_1a09", Author: "stormchaser", Title: "Atmospheric river incoming", Body: "Models showing 3 inches over the weekend. Check your gutters now."},
	{Table: "posts", RecordID: "t3_1a10", Author: "coffeesnob", Title: "Roasters that actually label roast dates", Body: "Compiled a list of local roasters with honest packaging."},
	{Table: "comments", RecordID: "t1_2b01", Author: "tacofan99", Body: "The truck moved to Folsom and 22nd, still the best al pastor in the city.", Location: "San Francisco"},
	{Table: "comments", RecordID: "t1_2b02", Author: "cyclingdad", Body: "Protected lanes are great but the intersection treatments matter more."},
	{Table: "comments", RecordID: "t1_2b03", Author: "pizzapurist", Body: "Myrtle slice is good but it is not beating a proper dollar slice at 2am.", Location: "New York"},
	{Table: "comments", RecordID: "t1_2b04", Author: "gtrainrefugee", Body: "The shuttle buses were actually fine during the last shutdown, 10 minute headways."},
	{Table: "comments", RecordID: "t1_2b05", Author: "marketregular", Body: "New market spot has way more parking, the flower vendor is back too.", Location: "Oakland"},
	{Table: "comments", RecordID: "t1_2b06", Author: "stairmaster", Body: "Add the Baxter street stairs if you want a real climb.", Location: "Los Angeles"},
	{Table: "comments", RecordID: "t1_2b07", Author: "weatherwonk", Body: "Last time the models said 3 inches we got half an inch. Believe it when it lands."},
	{Table: "comments", RecordID: "t1_2b08", Author: "homebarista", Body: "Roast date within two weeks or it goes back on the shelf, no exceptions."},
}

var (
	seedFileName = flag.String("src", "", "JSON-lines file of seed documents")
	dbPath       = flag.String("db", "./threadlens_db", "database directory")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// docsFromFile returns an iterator over documents in a JSON-lines file,
// one document object per line.
func docsFromFile(filename string) (iter.Seq[*core.Document], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(*core.Document) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		line := 0
		for scanner.Scan() {
			line++
			var doc core.Document
			if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
				slog.Warn("skipping malformed line", "line", line, "error", err)
				continue
			}
			if !yield(&doc) {
				return
			}
		}
	}, nil
}

// docsFromSlice returns an iterator over a slice of documents.
func docsFromSlice(docs []core.Document) iter.Seq[*core.Document] {
	return func(yield func(*core.Document) bool) {
		for i := range docs {
			if !yield(&docs[i]) {
				return
			}
		}
	}
}

// ingestBatched reads from a source iterator and ingests documents in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq[*core.Document], batchSize int) (int, error) {
	total := 0
	batch := make([]*core.Document, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		stored, err := pipeline.Ingest(ctx, batch...)
		if err != nil {
			return err
		}
		total += len(stored)
		batch = batch[:0]
		return nil
	}

	for doc := range source {
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now()
		}
		batch = append(batch, doc)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	return total, nil
}

func main() {
	db, err := threadlens.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ingester, err := db.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()

	var source iter.Seq[*core.Document]
	if seedFileName != nil && *seedFileName != "" {
		source, err = docsFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = docsFromSlice(samples)
	}

	total, err := ingestBatched(ctx, ingester, source, 5)
	if err != nil {
		panic(err)
	}
	fmt.Printf("ingested %d documents\n", total)
}
