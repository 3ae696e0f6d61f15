package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/sanity-io/litter"

	"github.com/zerodev1200/ObservableCollections/observable"
)

const ExploreVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Observable collections explorer.

Usage:
    explore list [--count=<count>]
    explore sorted [--count=<count>]
    explore filter [--count=<count>]

Options:
    -h --help          Show this screen.
    --version          Show version.
    --count=<count>    Number of demo items [default: 8].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], ExploreVersion)
	if err != nil {
		panic(err)
	}

	count, _ := opts.Int("--count")

	if list_, _ := opts.Bool("list"); list_ {
		listDemo(count)
	} else if sorted_, _ := opts.Bool("sorted"); sorted_ {
		sortedDemo(count)
	} else if filter_, _ := opts.Bool("filter"); filter_ {
		filterDemo(count)
	}
}

type product struct {
	Sku   string
	Price int
}

func productSku(item *product) string {
	return item.Sku
}

func productLabel(item *product) string {
	return fmt.Sprintf("%s ($%d)", item.Sku, item.Price)
}

func demoProducts(count int) []*product {
	products := []*product{}
	for i := 0; i < count; i += 1 {
		products = append(products, &product{
			Sku:   fmt.Sprintf("sku-%03d", i),
			Price: (i * 37) % 100,
		})
	}
	return products
}

func listDemo(count int) {
	observable.HandleError(func() {
		list := observable.NewObservableList[*product]()
		view := observable.NewView(list, productSku, productLabel)

		view.AddStateChangeCallback(func(action observable.ChangeAction) {
			Out.Printf("state changed: %s\n", action)
		})

		list.AddAll(demoProducts(count)...)
		list.RemoveAt(0)

		Out.Printf("count=%d\n", view.Count())
		Out.Printf("%s\n", litter.Sdump(view.Enumerate().Pairs()))
	}, func(err error) {
		Err.Printf("list demo failed: %s\n", err)
	})
}

func sortedDemo(count int) {
	observable.HandleError(func() {
		list := observable.NewObservableList[*product]()
		view := observable.NewSortedView(list, productSku, func(item *product) int {
			return item.Price
		}, func(a int, b int) int {
			return a - b
		})

		list.AddAll(demoProducts(count)...)

		Out.Printf("ascending by price:\n")
		for _, pair := range view.Enumerate().Pairs() {
			Out.Printf("  %s -> %d\n", pair.Item.Sku, pair.View)
		}
	}, func(err error) {
		Err.Printf("sorted demo failed: %s\n", err)
	})
}

func filterDemo(count int) {
	observable.HandleError(func() {
		list := observable.NewObservableList[*product]()
		view := observable.NewView(list, productSku, productLabel)

		view.AttachFilter(&observable.CallbackViewFilter[*product, string]{
			Add: func(item *product, label string) {
				Out.Printf("visible add: %s\n", label)
			},
			Remove: func(item *product, label string) {
				Out.Printf("visible remove: %s\n", label)
			},
			Match: func(item *product, label string) bool {
				return 50 <= item.Price
			},
		})

		list.AddAll(demoProducts(count)...)
		list.RemoveAt(0)

		labels := []string{}
		for _, pair := range view.Enumerate().Pairs() {
			labels = append(labels, pair.View)
		}
		Out.Printf("visible: %s\n", strings.Join(labels, ", "))
		Out.Printf("%s\n", litter.Sdump(labels))
	}, func(err error) {
		Err.Printf("filter demo failed: %s\n", err)
	})
}
