package cascade_test

import (
	"context"
	"fmt"

	"github.com/aretw0/cascade"
	"github.com/aretw0/cascade/pkg/adapters/echo"
	"github.com/aretw0/cascade/pkg/adapters/memory"
	"github.com/aretw0/cascade/pkg/dsl"
)

// This example builds a two-step pipeline in code and runs it with the echo provider.
func Example() {
	b := dsl.New()
	b.Step("doc").System("You document code.").Template("Document this:\n{{input_content}}").Then("summary")
	b.Step("summary").Template("Summarise:\n{{doc}}")

	pipeline, err := b.Build()
	if err != nil {
		panic(err)
	}

	artifacts := memory.NewArtifactStore()
	eng, err := cascade.New(
		cascade.WithPipeline(pipeline),
		cascade.WithDefaults(map[string]any{"provider": echo.Name, "model": "none"}),
		cascade.WithGenerator(echo.Name, echo.New()),
		cascade.WithArtifacts(artifacts),
		cascade.WithRunRecord(false),
	)
	if err != nil {
		panic(err)
	}

	report := eng.RunContent(context.Background(), "main.go", []byte("func main() {}"))
	fmt.Println(report.Status())

	out, _ := artifacts.Get(context.Background(), "main/summary.txt")
	fmt.Println(string(out))

	// Output:
	// succeeded
	// echo:Summarise:
	// echo:Document this:
	// func main() {}
}
