package repos_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
	"linenloft/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ids(t *testing.T, db *sqlx.DB, f repos.Filter) []string {
	t.Helper()
	prods, err := repos.NewProductRepo(db).List(f)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, 0, len(prods))
	for _, p := range prods {
		out = append(out, p.ID)
	}
	return out
}

func has(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// Seeded catalog: sateen (bedsheets, 1199, Ivory/Slate), percale (bedsheets,
// 749, White/Sage), linen duvet (duvets, 2799), wool throw (blankets, 2199).

func TestListFiltersAndTogether(t *testing.T) {
	db := memdb(t)

	// category alone
	got := ids(t, db, repos.Filter{CategoryID: "cat-bedsheets", MinPrice: -1, MaxPrice: -1})
	if len(got) != 2 {
		t.Fatalf("bedsheets: want 2, got %v", got)
	}

	// category AND price range excludes the cheaper percale
	got = ids(t, db, repos.Filter{CategoryID: "cat-bedsheets", MinPrice: 1000, MaxPrice: 2000})
	if len(got) != 1 || got[0] != "prod-sateen-400" {
		t.Fatalf("bedsheets in 1000..2000: want sateen only, got %v", got)
	}

	// adding a color the survivor lacks empties the result
	got = ids(t, db, repos.Filter{
		CategoryID: "cat-bedsheets", MinPrice: 1000, MaxPrice: 2000, Colors: []string{"Sage"},
	})
	if len(got) != 0 {
		t.Fatalf("want no rows, got %v", got)
	}
}

func TestListColorSetMatchesAny(t *testing.T) {
	db := memdb(t)

	got := ids(t, db, repos.Filter{MinPrice: -1, MaxPrice: -1, Colors: []string{"Sage", "Charcoal"}})
	if len(got) != 2 || !has(got, "prod-percale-200") || !has(got, "prod-linen-duvet") {
		t.Fatalf("colors [Sage Charcoal]: got %v", got)
	}
}

func TestListSizeFilter(t *testing.T) {
	db := memdb(t)

	got := ids(t, db, repos.Filter{MinPrice: -1, MaxPrice: -1, Sizes: []string{"Double"}})
	if len(got) != 1 || got[0] != "prod-percale-200" {
		t.Fatalf("size Double: got %v", got)
	}
}

func TestListPriceSort(t *testing.T) {
	db := memdb(t)

	got := ids(t, db, repos.Filter{MinPrice: -1, MaxPrice: -1, Sort: repos.SortPriceLow})
	if len(got) != 4 || got[0] != "prod-percale-200" || got[3] != "prod-linen-duvet" {
		t.Fatalf("price-low order wrong: %v", got)
	}
}

func TestListSearchRanksNameAboveDescription(t *testing.T) {
	db := memdb(t)

	// "linen" appears in the duvet's name; nothing else should outrank it
	got := ids(t, db, repos.Filter{MinPrice: -1, MaxPrice: -1, Search: "linen"})
	if len(got) == 0 || got[0] != "prod-linen-duvet" {
		t.Fatalf("search linen: want duvet first, got %v", got)
	}

	// no match at all
	got = ids(t, db, repos.Filter{MinPrice: -1, MaxPrice: -1, Search: "flannel"})
	if len(got) != 0 {
		t.Fatalf("search flannel: want none, got %v", got)
	}
}

func TestDecrementStock(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)

	ok, err := prods.DecrementStock("prod-wool-throw", 12)
	if err != nil || !ok {
		t.Fatalf("full decrement should succeed: ok=%v err=%v", ok, err)
	}
	p, err := prods.Get("prod-wool-throw")
	if err != nil {
		t.Fatal(err)
	}
	if p.StockQty != 0 || p.InStock {
		t.Fatalf("sold out product should read empty: %+v", p)
	}

	ok, err = prods.DecrementStock("prod-wool-throw", 1)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("decrement below zero must be refused")
	}
}

func TestInsertReviewRefreshesAverage(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)

	add := func(id string, rating int) {
		t.Helper()
		err := prods.InsertReview(domain.Review{
			ID: id, ProductID: "prod-wool-throw", UserID: "u-demo", Rating: rating, Comment: "ok",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	add("rv-1", 5)
	add("rv-2", 2)

	p, err := prods.Get("prod-wool-throw")
	if err != nil {
		t.Fatal(err)
	}
	if p.Rating != 3.5 {
		t.Fatalf("want average rating 3.5, got %v", p.Rating)
	}

	rvs, err := prods.Reviews("prod-wool-throw")
	if err != nil {
		t.Fatal(err)
	}
	if len(rvs) != 2 || rvs[0].UserName != "Demo Customer" {
		t.Fatalf("reviews should join the reviewer name: %+v", rvs)
	}
}
