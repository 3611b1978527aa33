package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"scentara/internal/collection"
	"scentara/internal/model"
)

func (a *App) collectionsCmd(ctx context.Context, args []string) {
	identity := a.session.Identity()
	if identity == nil {
		fmt.Println("Sign in first.")
		return
	}

	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
		a.collectionsList(ctx, identity.ID)
	case "create":
		a.collectionsCreate(ctx, identity.ID, args)
	case "rename":
		a.collectionsRename(ctx, args)
	case "items":
		a.collectionsItems(ctx, args)
	case "add":
		a.collectionsAdd(ctx, args)
	case "modify":
		a.collectionsModify(ctx, args)
	default:
		fmt.Println(`Usage:
  collections [list]
  collections create <name...>
  collections rename <collection-id> <name...>
  collections items <collection-id> [recently_added|name|brand]
  collections add <collection-id> <perfume-id>
  collections modify <collection-id>`)
	}
}

func (a *App) collectionsList(ctx context.Context, identityID string) {
	collections, err := a.manager.List(ctx, identityID)
	if err != nil {
		fmt.Printf("Could not load collections: %v\n", err)
		return
	}
	if len(collections) == 0 {
		fmt.Println("No collections yet.")
		return
	}

	for _, c := range collections {
		marker := ""
		if c.IsDefault {
			marker = " *"
		}
		fmt.Printf("  %s  %s%s (%d items)\n", c.ID, c.Name, marker, c.ItemCount)
	}
}

func (a *App) collectionsCreate(ctx context.Context, identityID string, args []string) {
	name := strings.Join(args, " ")
	c, err := a.manager.Create(ctx, identityID, name, nil)
	if err != nil {
		if errors.Is(err, model.ErrEmptyCollectionName) {
			fmt.Println("A collection needs a name.")
			return
		}
		fmt.Printf("Could not create collection: %v\n", err)
		return
	}
	fmt.Printf("Created %q (%s).\n", c.Name, c.ID)
}

func (a *App) collectionsRename(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: collections rename <collection-id> <name...>")
		return
	}
	name := strings.Join(args[1:], " ")

	c, err := a.manager.Update(ctx, args[0], model.CollectionPatch{Name: &name})
	if err != nil {
		if errors.Is(err, model.ErrEmptyCollectionName) {
			fmt.Println("A collection needs a name.")
			return
		}
		fmt.Printf("Could not rename collection: %v\n", err)
		return
	}
	fmt.Printf("Renamed to %q.\n", c.Name)
}

func (a *App) collectionsItems(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: collections items <collection-id> [recently_added|name|brand]")
		return
	}

	key := collection.SortRecentlyAdded
	if len(args) > 1 {
		key = collection.SortKey(args[1])
	}

	items, err := a.manager.Items(ctx, args[0])
	if err != nil {
		fmt.Printf("Could not load items: %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("This collection is empty.")
		return
	}

	printItemList(collection.SortItems(items, key))
}

func (a *App) collectionsAdd(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: collections add <collection-id> <perfume-id>")
		return
	}
	perfumeID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Println("The perfume id must be a number.")
		return
	}

	perfume, err := a.catalog.GetPerfume(ctx, perfumeID)
	if err != nil {
		if errors.Is(err, model.ErrPerfumeNotFound) {
			fmt.Printf("No perfume with id %d.\n", perfumeID)
			return
		}
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}

	var note *string
	if raw := a.readLine("Note (empty to skip): "); raw != "" {
		note = &raw
	}

	if _, err := a.manager.AddItem(ctx, args[0], perfume, note); err != nil {
		if errors.Is(err, model.ErrDuplicateItem) {
			fmt.Printf("%s is already in this collection.\n", perfume.Name)
			return
		}
		fmt.Printf("Could not add item: %v\n", err)
		return
	}

	fmt.Printf("Added %s.\n", perfume.Name)
	if err := a.flow.RefreshCollections(ctx); err != nil {
		fmt.Printf("Could not refresh collections: %v\n", err)
	}
}

// collectionsModify is the multi-select removal flow: toggle items into a
// selection, confirm, then remove them as a batch and report the items that
// could not be removed.
func (a *App) collectionsModify(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: collections modify <collection-id>")
		return
	}

	items, err := a.manager.Items(ctx, args[0])
	if err != nil {
		fmt.Printf("Could not load items: %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("This collection is empty.")
		return
	}

	items = collection.SortItems(items, collection.SortRecentlyAdded)
	byIndex := make(map[int]model.CollectionItem, len(items))
	names := make(map[string]string, len(items))
	for i, item := range items {
		byIndex[i+1] = item
		names[item.ID] = item.PerfumeName
	}

	sel := collection.NewSelection()
	sel.EnterModify()
	defer sel.ExitModify()

	fmt.Println("Modify mode: enter item numbers to toggle, 'done' to remove, 'cancel' to exit.")
	for {
		for i := 1; i <= len(items); i++ {
			mark := " "
			if sel.Has(byIndex[i].ID) {
				mark = "x"
			}
			fmt.Printf("  [%s] %2d. %s\n", mark, i, byIndex[i].PerfumeName)
		}

		switch input := a.readLine(fmt.Sprintf("(%d selected) > ", sel.Count())); input {
		case "cancel", "":
			fmt.Println("Nothing removed.")
			return
		case "done":
			if sel.Count() == 0 {
				fmt.Println("Nothing selected.")
				continue
			}
			a.removeSelected(ctx, sel, names)
			return
		default:
			n, err := strconv.Atoi(input)
			if err != nil || byIndex[n].ID == "" {
				fmt.Println("Enter an item number, 'done', or 'cancel'.")
				continue
			}
			sel.Toggle(byIndex[n].ID)
		}
	}
}

func (a *App) removeSelected(ctx context.Context, sel *collection.Selection, names map[string]string) {
	ids := sel.Selected()
	answer := a.readLine(fmt.Sprintf("Remove %d item(s)? (y/N): ", len(ids)))
	if !strings.EqualFold(answer, "y") {
		fmt.Println("Nothing removed.")
		return
	}

	result := a.manager.RemoveItems(ctx, ids)
	fmt.Printf("Removed %d of %d item(s).\n", len(result.Removed), len(ids))
	for id, err := range result.Failed {
		fmt.Printf("  could not remove %s: %v\n", names[id], err)
	}

	if err := a.flow.RefreshCollections(ctx); err != nil {
		fmt.Printf("Could not refresh collections: %v\n", err)
	}
}

func printItemList(items []model.CollectionItem) {
	for _, item := range items {
		brand := ""
		if item.PerfumeBrand != nil {
			brand = " by " + *item.PerfumeBrand
		}
		note := ""
		if item.Note != nil {
			note = "  (" + *item.Note + ")"
		}
		fmt.Printf("  %s  %s%s%s\n", item.ID, item.PerfumeName, brand, note)
	}
}
