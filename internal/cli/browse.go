package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"scentara/internal/model"
)

func (a *App) browse(ctx context.Context, args []string) {
	var err error
	if len(args) > 0 && args[0] == "refresh" {
		err = a.browser.Refresh(ctx)
	} else {
		err = a.browser.LoadSample(ctx)
	}
	if err != nil {
		fmt.Printf("Could not load the catalog: %v\n", err)
		return
	}

	sample := a.browser.Sample()
	if len(sample) == 0 {
		fmt.Println("The catalog is empty.")
		return
	}
	printPerfumeList(sample)
}

// search pushes the joined arguments through the debounced query pipeline
// and waits for the result callback, so one command behaves like the final
// keystroke of a typed query.
func (a *App) search(ctx context.Context, args []string) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		fmt.Println("Usage: search <text>")
		return
	}

	var (
		wg      sync.WaitGroup
		results []model.Perfume
	)
	wg.Add(1)
	var once sync.Once
	a.browser.OnResults(func(perfumes []model.Perfume) {
		results = perfumes
		once.Do(wg.Done)
	})
	defer a.browser.OnResults(nil)

	a.browser.SetQuery(ctx, query)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(a.cfg.SearchDebounce + a.cfg.HTTPTimeout):
		fmt.Println("Search timed out.")
		return
	}

	if len(results) == 0 {
		fmt.Printf("No perfumes match %q.\n", query)
		return
	}
	printPerfumeList(results)
}

func (a *App) show(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: show <perfume-id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("The perfume id must be a number.")
		return
	}

	p, err := a.catalog.GetPerfume(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPerfumeNotFound) {
			fmt.Printf("No perfume with id %d.\n", id)
			return
		}
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}

	fmt.Printf("%s\n", p.Name)
	if p.Brand != nil {
		fmt.Printf("  Brand:   %s\n", *p.Brand)
	}
	if p.Gender != nil {
		fmt.Printf("  Gender:  %s\n", *p.Gender)
	}
	if p.RatingValue != nil && p.RatingCount != nil {
		fmt.Printf("  Rating:  %.2f (%d votes)\n", *p.RatingValue, *p.RatingCount)
	}
	if len(p.MainAccords) > 0 {
		fmt.Printf("  Accords: %s\n", strings.Join(p.MainAccords, ", "))
	}
	if p.TopNotes != nil {
		fmt.Printf("  Top:     %s\n", *p.TopNotes)
	}
	if p.MiddleNotes != nil {
		fmt.Printf("  Middle:  %s\n", *p.MiddleNotes)
	}
	if p.BaseNotes != nil {
		fmt.Printf("  Base:    %s\n", *p.BaseNotes)
	}
	if p.Notes != nil {
		fmt.Printf("  Notes:   %s\n", *p.Notes)
	}
	if p.Description != nil {
		fmt.Printf("  %s\n", *p.Description)
	}
}

func printPerfumeList(perfumes []model.Perfume) {
	for _, p := range perfumes {
		brand := ""
		if p.Brand != nil {
			brand = " by " + *p.Brand
		}
		rating := ""
		if p.RatingValue != nil {
			rating = fmt.Sprintf("  %.2f", *p.RatingValue)
		}
		fmt.Printf("  [%d] %s%s%s\n", p.ID, p.Name, brand, rating)
	}
}
